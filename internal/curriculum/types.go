package curriculum

// Seed is the built-in shape of the catalog: the grades offered and the
// subjects taught in them, in display order.
type Seed struct {
	Grades   []Grade   `yaml:"grades"`
	Subjects []Subject `yaml:"subjects"`
}

// Grade represents a school level (e.g., Grade 6, A/L).
type Grade struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Display string `yaml:"display"`
	Active  *bool  `yaml:"active"`
}

// IsActive reports whether the grade is active. Grades default to active.
func (g Grade) IsActive() bool {
	return g.Active == nil || *g.Active
}

// Subject represents a subject within one or more grades (e.g., Physics).
type Subject struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Icon   string   `yaml:"icon"`
	Grades []string `yaml:"grades"`
}
