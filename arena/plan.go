package arena

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"chessArena/bots"
)

// EngineSpec как запускать тестируемый движок.
type EngineSpec struct {
	Path      string        `yaml:"path"`
	Args      []string      `yaml:"args,omitempty"`
	Algorithm string        `yaml:"algorithm,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

// ReferenceSpec как запускать эталонный UCI движок.
type ReferenceSpec struct {
	Path             string        `yaml:"path"`
	Args             []string      `yaml:"args,omitempty"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout,omitempty"`
	MoveTimeout      time.Duration `yaml:"move_timeout,omitempty"`
	PerDepthTimeout  time.Duration `yaml:"per_depth_timeout,omitempty"`
}

// Plan набор именованных тестов против одного эталона.
type Plan struct {
	Engine    EngineSpec    `yaml:"engine"`
	Reference ReferenceSpec `yaml:"reference"`
	Tests     []MatchConfig `yaml:"tests"`
}

func skill(v int) *int {
	return &v
}

// DefaultPlan четыре стандартных теста по 10 партий.
func DefaultPlan(enginePath, referencePath string) Plan {
	return Plan{
		Engine:    EngineSpec{Path: enginePath},
		Reference: ReferenceSpec{Path: referencePath},
		Tests: []MatchConfig{
			{Name: "Equal Depth (5 vs 5)", EngineDepth: 5, ReferenceDepth: 5, Games: 10},
			{Name: "Engine Advantage (6 vs 4)", EngineDepth: 6, ReferenceDepth: 4, Games: 10},
			{Name: "Reference Advantage (4 vs 6)", EngineDepth: 4, ReferenceDepth: 6, Games: 10},
			{Name: "Limited Reference (Skill 10)", EngineDepth: 5, ReferenceDepth: 5, SkillLevel: skill(10), Games: 10},
		},
	}
}

// LoadPlan читает план из YAML. Неизвестные поля - ошибка.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	return ParsePlan(data)
}

func ParsePlan(data []byte) (*Plan, error) {
	var plan Plan
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	return &plan, nil
}

func (p *Plan) Validate() error {
	if p.Engine.Path == "" {
		return fmt.Errorf("engine.path is required")
	}
	if p.Reference.Path == "" {
		return fmt.Errorf("reference.path is required")
	}
	if len(p.Tests) == 0 {
		return fmt.Errorf("tests list is required and must be non-empty")
	}
	seen := make(map[string]bool)
	for i := range p.Tests {
		cfg := p.Tests[i].withDefaults()
		if seen[cfg.Name] {
			return fmt.Errorf("duplicate test name %q", cfg.Name)
		}
		seen[cfg.Name] = true
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s EngineSpec) NewEngine(log zerolog.Logger) *bots.CLIBot {
	b := bots.NewCLIBot(s.Path)
	b.Args = s.Args
	b.Algorithm = s.Algorithm
	if s.Timeout > 0 {
		b.Timeout = s.Timeout
	}
	b.Log = log
	return b
}

// Factory новая сессия эталона на каждую партию, с уровнем силы из теста.
func (s ReferenceSpec) Factory(log zerolog.Logger) func(cfg MatchConfig) bots.Session {
	return func(cfg MatchConfig) bots.Session {
		b := bots.NewUCIBot(s.Path)
		b.Args = s.Args
		b.SkillLevel = cfg.SkillLevel
		if s.HandshakeTimeout > 0 {
			b.HandshakeTimeout = s.HandshakeTimeout
		}
		if s.MoveTimeout > 0 {
			b.MoveTimeout = s.MoveTimeout
		}
		if s.PerDepthTimeout > 0 {
			b.PerDepthTimeout = s.PerDepthTimeout
		}
		b.Log = log
		return b
	}
}
