package puzzle

// Built-in puzzle type tags. Unknown tags fall back to TypeGeneric.
const (
	TypeAssembly  = "assembly"
	TypeCrafting  = "crafting"
	TypeDiagnosis = "diagnosis"
	TypeSequence  = "sequence"
	TypeResonance = "resonance"
	TypeGeneric   = "generic"
)

// Reward is a typed effect applied to the game state when a puzzle
// completes.
type Reward struct {
	Type     string      `json:"type"` // item | flag | variable
	Item     string      `json:"item,omitempty"`
	Count    int         `json:"count,omitempty"`
	Flag     string      `json:"flag,omitempty"`
	Variable string      `json:"variable,omitempty"`
	Value    interface{} `json:"value,omitempty"`
}

// Definition is the immutable configuration for one puzzle. Many instances
// may be created from one definition; instances never write back to it.
type Definition struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty"` // easy | normal | hard | expert
	MaxAttempts int      `json:"maxAttempts"` // 0 = unbounded
	TimeLimit   int      `json:"timeLimit"`   // milliseconds, 0 = none
	MaxHints    int      `json:"maxHints"`    // 0 = all configured hints
	Hints       []string `json:"hints"`
	Rewards     []Reward `json:"rewards"`

	Assembly  *AssemblyConfig  `json:"assembly,omitempty"`
	Crafting  *CraftingConfig  `json:"crafting,omitempty"`
	Diagnosis *DiagnosisConfig `json:"diagnosis,omitempty"`
	Sequence  *SequenceConfig  `json:"sequence,omitempty"`
	Resonance *ResonanceConfig `json:"resonance,omitempty"`
}

// HintBudget returns the usable hint count: min(maxHints, len(hints)),
// where an unset maxHints means every configured hint is available.
func (d *Definition) HintBudget() int {
	budget := len(d.Hints)
	if d.MaxHints > 0 && d.MaxHints < budget {
		budget = d.MaxHints
	}
	return budget
}

// AssemblySlot is one target position in an assembly puzzle. X/Y locate
// the slot on the play surface for drop resolution.
type AssemblySlot struct {
	ID   string  `json:"id"`
	Part string  `json:"part"` // the designated part for this slot
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// AssemblyConfig configures a mechanical assembly puzzle.
type AssemblyConfig struct {
	Slots         []AssemblySlot `json:"slots"`
	Parts         []string       `json:"parts"`
	DropThreshold float64        `json:"dropThreshold"` // 0 = default 48
}

func (c *AssemblyConfig) threshold() float64 {
	if c.DropThreshold <= 0 {
		return 48
	}
	return c.DropThreshold
}

// CraftingConfig configures an ordered-recipe crafting puzzle.
type CraftingConfig struct {
	Ingredients    []string `json:"ingredients"`
	Recipe         []string `json:"recipe"`
	MaxIngredients int      `json:"maxIngredients"` // 0 = len(recipe)
}

func (c *CraftingConfig) maxSelected() int {
	if c.MaxIngredients <= 0 {
		return len(c.Recipe)
	}
	return c.MaxIngredients
}

// DiagnosisHotspot is an examinable region. Findings are keyed by the
// examination tool that reveals them; a tool with no entry reveals nothing.
type DiagnosisHotspot struct {
	ID       string            `json:"id"`
	Findings map[string]string `json:"findings"`
}

// DiagnosisConfig configures a diagnosis puzzle.
type DiagnosisConfig struct {
	Hotspots  []DiagnosisHotspot `json:"hotspots"`
	Tools     []string           `json:"tools"`
	Diagnoses []string           `json:"diagnoses"`
	Correct   string             `json:"correct"`
}

// SequenceConfig configures a multi-round memory sequence puzzle.
type SequenceConfig struct {
	Symbols       []string `json:"symbols"`
	InitialLength int      `json:"initialLength"` // 0 = default 3
	MaxRounds     int      `json:"maxRounds"`     // 0 = default 3
	StepMillis    int      `json:"stepMillis"`    // show time per step, 0 = 800
	InputTimeout  int      `json:"inputTimeout"`  // input phase, milliseconds, 0 = 10000
}

func (c *SequenceConfig) initialLength() int {
	if c.InitialLength <= 0 {
		return 3
	}
	return c.InitialLength
}

func (c *SequenceConfig) maxRounds() int {
	if c.MaxRounds <= 0 {
		return 3
	}
	return c.MaxRounds
}

// ResonanceConfig configures a note-tuning resonance puzzle. One dial is
// the audible frequency; the rest are flavor the UI renders.
type ResonanceConfig struct {
	Dials         []string  `json:"dials"`
	FrequencyDial string    `json:"frequencyDial"` // "" = first dial
	Notes         []float64 `json:"notes"`         // target frequencies, Hz
	ToleranceHz   float64   `json:"toleranceHz"`   // 0 = default 5
}

func (c *ResonanceConfig) frequencyDial() string {
	if c.FrequencyDial != "" {
		return c.FrequencyDial
	}
	if len(c.Dials) > 0 {
		return c.Dials[0]
	}
	return "frequency"
}

func (c *ResonanceConfig) tolerance() float64 {
	if c.ToleranceHz <= 0 {
		return 5
	}
	return c.ToleranceHz
}
