// Package vecmath provides the value types shared by every numeric package:
//
//   - [Vector3]: immutable 3-D vector (field vectors, ECEF/ENU coordinates)
//   - [Complex]: immutable complex number (impedances)
//
// All operations return new values. Degenerate inputs never produce NaN or
// Inf: [Vector3.Normalize] of a near-zero vector returns [UnitX], and
// [Complex.Div] by a near-zero divisor saturates at [SaturatedValue].
package vecmath
