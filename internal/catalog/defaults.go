package catalog

func twoPort() []string { return []string{"a", "b"} }

func sourcePorts() []string { return []string{"positive", "negative"} }

// Default returns a fresh copy of the built-in catalog.
func Default() *Catalog {
	c := &Catalog{
		Components: make(map[ComponentType]Definition),
		Materials:  make(map[string]Material),
	}

	for _, m := range []Material{
		{Name: "copper", Resistivity: 1.68e-8, Permeability: 0.999994, ThermalCoefficient: 0.00393, MaxTemperature: 250},
		{Name: "aluminum", Resistivity: 2.65e-8, Permeability: 1.000022, ThermalCoefficient: 0.00429, MaxTemperature: 200},
		{Name: "silver", Resistivity: 1.59e-8, Permeability: 0.99998, ThermalCoefficient: 0.0038, MaxTemperature: 250},
		{Name: "gold", Resistivity: 2.44e-8, Permeability: 0.99996, ThermalCoefficient: 0.0034, MaxTemperature: 250},
		{Name: "nichrome", Resistivity: 1.10e-6, Permeability: 1.0001, ThermalCoefficient: 0.0004, MaxTemperature: 1150},
		{Name: "carbon", Resistivity: 3.5e-5, Permeability: 0.99998, ThermalCoefficient: -0.0005, MaxTemperature: 200},
		{Name: "iron", Resistivity: 9.71e-8, Permeability: 5000, ThermalCoefficient: 0.00651, MaxTemperature: 600},
		{Name: "ferrite", Resistivity: 1.0, Permeability: 2000, ThermalCoefficient: 0, MaxTemperature: 150},
		{Name: "tungsten", Resistivity: 5.6e-8, Permeability: 1.000068, ThermalCoefficient: 0.0045, MaxTemperature: 3000},
	} {
		m.Conductivity = 1 / m.Resistivity
		c.Materials[m.Name] = m
	}

	defs := []Definition{
		{
			Type: Resistor, Category: CategoryPassive, Ports: twoPort(), Material: "carbon",
			Defaults:  map[string]float64{"resistance": 1000},
			Footprint: Footprint{60, 20}, ThermalResistance: 50, HeatCapacity: 0.5,
		},
		{
			Type: Capacitor, Category: CategoryPassive, Ports: twoPort(), Material: "aluminum",
			Defaults:  map[string]float64{"capacitance": 1e-6, "maxVoltage": 50},
			Footprint: Footprint{40, 30}, ThermalResistance: 80, HeatCapacity: 0.3,
		},
		{
			Type: Inductor, Category: CategoryPassive, Ports: twoPort(), Material: "copper",
			Defaults:  map[string]float64{"inductance": 1e-3, "resistance": 0.5},
			Footprint: Footprint{60, 20}, ThermalResistance: 40, HeatCapacity: 1,
		},
		{
			Type: DCSource, Category: CategorySource, Ports: sourcePorts(), Material: "copper",
			Defaults:  map[string]float64{"voltage": 12},
			Footprint: Footprint{40, 60}, ThermalResistance: 20, HeatCapacity: 10,
		},
		{
			Type: ACSource, Category: CategorySource, Ports: sourcePorts(), Material: "copper",
			Defaults:  map[string]float64{"voltage": 12, "frequency": 60},
			Footprint: Footprint{40, 60}, ThermalResistance: 20, HeatCapacity: 10,
		},
		{
			Type: PulseGenerator, Category: CategorySource, Ports: sourcePorts(), Material: "copper",
			Defaults:  map[string]float64{"voltage": 5, "frequency": 1, "dutyCycle": 0.5},
			Footprint: Footprint{50, 60}, ThermalResistance: 20, HeatCapacity: 10,
		},
		{
			Type: Coil, Category: CategoryMagnetic, Ports: twoPort(), Material: "copper",
			Defaults:  map[string]float64{"turns": 100, "radius": 0.02, "length": 0.05, "wireDiameter": 0.5e-3, "corePermeability": 1},
			Footprint: Footprint{60, 40}, ThermalResistance: 25, HeatCapacity: 5,
		},
		{
			Type: Solenoid, Category: CategoryMagnetic, Ports: twoPort(), Material: "copper",
			Defaults:  map[string]float64{"turns": 500, "radius": 0.01, "length": 0.1, "wireDiameter": 0.4e-3, "corePermeability": 1},
			Footprint: Footprint{100, 30}, ThermalResistance: 15, HeatCapacity: 12,
		},
		{
			Type: Toroid, Category: CategoryMagnetic, Ports: twoPort(), Material: "copper",
			Defaults:  map[string]float64{"turns": 200, "radius": 0.03, "minorRadius": 0.005, "wireDiameter": 0.5e-3, "corePermeability": 2000},
			Footprint: Footprint{60, 60}, ThermalResistance: 20, HeatCapacity: 8,
		},
		{
			Type: Helmholtz, Category: CategoryMagnetic, Ports: twoPort(), Material: "copper",
			Defaults:  map[string]float64{"turns": 50, "radius": 0.15, "wireDiameter": 1e-3, "corePermeability": 1},
			Footprint: Footprint{120, 80}, ThermalResistance: 10, HeatCapacity: 30,
		},
		{
			Type: Transformer, Category: CategoryMagnetic, Ports: []string{"p1", "p2", "s1", "s2"}, Material: "copper",
			Defaults:  map[string]float64{"primaryTurns": 100, "secondaryTurns": 50, "primaryInductance": 0.1, "windingResistance": 1},
			Footprint: Footprint{80, 80}, ThermalResistance: 8, HeatCapacity: 50,
		},
		{
			Type: Switch, Category: CategoryControl, Ports: twoPort(), Material: "copper",
			Defaults:  map[string]float64{"closed": 1, "onResistance": 0.01},
			Footprint: Footprint{50, 20}, ThermalResistance: 60, HeatCapacity: 0.5,
		},
		{
			Type: Relay, Category: CategoryControl, Ports: []string{"coil+", "coil-", "com", "no"}, Material: "copper",
			Defaults:  map[string]float64{"coilResistance": 100, "pullInVoltage": 5, "contactResistance": 0.05},
			Footprint: Footprint{60, 60}, ThermalResistance: 40, HeatCapacity: 2,
		},
		{
			Type: Transistor, Category: CategoryControl, Ports: []string{"base", "collector", "emitter"}, Material: "silver",
			Defaults:  map[string]float64{"baseResistance": 1000, "onResistance": 0.2, "offResistance": 1e8, "threshold": 0.7},
			Footprint: Footprint{40, 40}, ThermalResistance: 60, HeatCapacity: 0.4,
		},
		{
			Type: Ground, Category: CategoryReference, Ports: []string{"gnd"}, Material: "copper",
			Defaults:  map[string]float64{},
			Footprint: Footprint{30, 30}, ThermalResistance: 1, HeatCapacity: 100,
		},
	}
	for _, d := range defs {
		c.Components[d.Type] = d
	}
	return c
}
