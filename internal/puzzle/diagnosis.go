package puzzle

import (
	"time"

	"github.com/lanternworks/storyloom/internal/events"
)

// Diagnosis is the examination puzzle: probe hotspots with tools to
// collect findings, then commit to a diagnosis. Findings inform the
// player; only the selected diagnosis is validated.
type Diagnosis struct {
	tracker
	cfg *DiagnosisConfig

	tool     string
	examined map[string]struct{}
	findings []string
	selected string
}

func newDiagnosis(def *Definition, bus *events.Bus) *Diagnosis {
	p := &Diagnosis{cfg: def.Diagnosis}
	if p.cfg == nil {
		p.cfg = &DiagnosisConfig{}
	}
	p.tracker = newTracker(def, bus, p)
	return p
}

func (p *Diagnosis) begin(now time.Time) {
	p.examined = make(map[string]struct{})
	p.findings = nil
	p.selected = ""
	p.tool = ""
	if len(p.cfg.Tools) > 0 {
		p.tool = p.cfg.Tools[0]
	}
}

func (p *Diagnosis) tick(now time.Time) {}

// HandleInput routes diagnosis actions:
//
//	tool     {tool}      : switch the active examination tool
//	examine  {hotspot}   : probe a hotspot with the active tool
//	diagnose {diagnosis} : select a diagnosis
func (p *Diagnosis) HandleInput(action string, input map[string]interface{}) {
	switch action {
	case "tool":
		tool, _ := input["tool"].(string)
		p.SetTool(tool)
	case "examine":
		hotspot, _ := input["hotspot"].(string)
		p.Examine(hotspot)
	case "diagnose":
		diagnosis, _ := input["diagnosis"].(string)
		p.SelectDiagnosis(diagnosis)
	}
}

// SetTool switches the active examination tool.
func (p *Diagnosis) SetTool(tool string) {
	if p.state != StateActive {
		return
	}
	p.tool = tool
	p.update("", map[string]interface{}{"tool": tool})
}

// Examine probes a hotspot with the active tool. Each hotspot's finding is
// keyed per tool; the wrong tool yields no finding and no state change.
func (p *Diagnosis) Examine(hotspotID string) {
	if p.state != StateActive {
		return
	}
	hs := p.findHotspot(hotspotID)
	if hs == nil {
		return
	}
	finding, ok := hs.Findings[p.tool]
	if !ok {
		return
	}
	key := hotspotID + "/" + p.tool
	if _, seen := p.examined[key]; seen {
		return
	}
	p.examined[key] = struct{}{}
	p.findings = append(p.findings, finding)
	p.update("", map[string]interface{}{
		"hotspot":  hotspotID,
		"tool":     p.tool,
		"finding":  finding,
		"findings": len(p.findings),
	})
}

// SelectDiagnosis records the player's diagnosis.
func (p *Diagnosis) SelectDiagnosis(id string) {
	if p.state != StateActive {
		return
	}
	p.selected = id
	p.update("", map[string]interface{}{"diagnosis": id})
}

// Findings returns the findings collected so far, in discovery order.
func (p *Diagnosis) Findings() []string {
	return append([]string{}, p.findings...)
}

func (p *Diagnosis) findHotspot(id string) *DiagnosisHotspot {
	for i := range p.cfg.Hotspots {
		if p.cfg.Hotspots[i].ID == id {
			return &p.cfg.Hotspots[i]
		}
	}
	return nil
}

// Solution returns the configured correct diagnosis.
func (p *Diagnosis) Solution() interface{} {
	return p.cfg.Correct
}

// ValidateSolution checks the selected diagnosis; findings are
// informational and never validated.
func (p *Diagnosis) ValidateSolution() bool {
	return p.cfg.Correct != "" && p.selected == p.cfg.Correct
}
