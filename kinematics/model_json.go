package kinematics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"

	"go.viam.com/ikchain/spatialmath"
	"go.viam.com/ikchain/utils"
)

// World is the reserved name of the frame a chain's base is expressed in.
const World = "world"

// ModelConfig represents all supported fields in a chain description file.
type ModelConfig struct {
	Name   string        `json:"name" yaml:"name"`
	Base   *BaseConfig   `json:"base,omitempty" yaml:"base,omitempty"`
	Joints []JointConfig `json:"joints" yaml:"joints"`
	Solver *SolverConfig `json:"solver,omitempty" yaml:"solver,omitempty"`
}

// BaseConfig places the chain's base in the world. Angles are in degrees and follow the same
// yaw-pitch-roll order as ball joints.
type BaseConfig struct {
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Z        float64 `json:"z" yaml:"z"`
	RollDeg  float64 `json:"roll_deg,omitempty" yaml:"roll_deg,omitempty"`
	PitchDeg float64 `json:"pitch_deg,omitempty" yaml:"pitch_deg,omitempty"`
	YawDeg   float64 `json:"yaw_deg,omitempty" yaml:"yaw_deg,omitempty"`
}

// JointConfig describes one element of the chain. Parent is optional; when any joint names a parent
// every joint must, and the chain is ordered by following parents from "world".
type JointConfig struct {
	ID     string  `json:"id" yaml:"id"`
	Type   string  `json:"type" yaml:"type" jsonschema:"enum=bone,enum=hinge,enum=axial,enum=ball"`
	Parent string  `json:"parent,omitempty" yaml:"parent,omitempty"`
	Length float64 `json:"length,omitempty" yaml:"length,omitempty" jsonschema:"minimum=0"`
}

// Pose returns the base pose described by the config.
func (b *BaseConfig) Pose() spatialmath.Pose {
	if b == nil {
		return spatialmath.NewZeroPose()
	}
	ea := &spatialmath.EulerAngles{
		Roll:  utils.DegToRad(b.RollDeg),
		Pitch: utils.DegToRad(b.PitchDeg),
		Yaw:   utils.DegToRad(b.YawDeg),
	}
	return spatialmath.NewPose(r3.Vector{X: b.X, Y: b.Y, Z: b.Z}, ea.RotationMatrix())
}

// ToJoint converts the config into a Joint.
func (cfg JointConfig) ToJoint() (Joint, error) {
	kind, err := ParseJointKind(cfg.Type)
	if err != nil {
		return Joint{}, errors.Wrapf(err, "joint %q", cfg.ID)
	}
	if kind == Bone {
		return NewBone(cfg.ID, cfg.Length)
	}
	j := Joint{Kind: kind, Name: cfg.ID, Length: cfg.Length}
	return j, j.validate()
}

// UnmarshalModelJSON will parse the given JSON data into a model. modelName sets the name of the model,
// will use the name from the JSON if string is empty.
func UnmarshalModelJSON(jsonData []byte, modelName string) (*Model, error) {
	cfg, err := UnmarshalModelConfigJSON(jsonData)
	if err != nil {
		return nil, err
	}
	return cfg.ParseConfig(modelName)
}

// UnmarshalModelConfigJSON parses JSON data into a ModelConfig without building the model.
func UnmarshalModelConfigJSON(jsonData []byte) (*ModelConfig, error) {
	// empty data probably means that there is no model information
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}
	cfg := &ModelConfig{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	return cfg, nil
}

// UnmarshalModelConfigYAML parses YAML data into a ModelConfig without building the model.
func UnmarshalModelConfigYAML(yamlData []byte) (*ModelConfig, error) {
	if len(yamlData) == 0 {
		return nil, ErrNoModelInformation
	}
	cfg := &ModelConfig{}
	if err := yaml.Unmarshal(yamlData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal yaml file")
	}
	return cfg, nil
}

// ReadModelConfigFile reads a chain description, choosing YAML for .yaml/.yml files and JSON otherwise.
func ReadModelConfigFile(filename string) (*ModelConfig, error) {
	//nolint:gosec
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read model file %q", filename)
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return UnmarshalModelConfigYAML(data)
	default:
		return UnmarshalModelConfigJSON(data)
	}
}

// ParseModelJSONFile will read a given file and then parse the contained JSON (or YAML) data.
func ParseModelJSONFile(filename, modelName string) (*Model, error) {
	cfg, err := ReadModelConfigFile(filename)
	if err != nil {
		return nil, err
	}
	return cfg.ParseConfig(modelName)
}

// ParseConfig converts the ModelConfig struct into a full Model with the name modelName.
func (cfg *ModelConfig) ParseConfig(modelName string) (*Model, error) {
	if modelName == "" {
		modelName = cfg.Name
	}
	ordered, err := cfg.orderedJoints()
	if err != nil {
		return nil, err
	}

	model := NewModelWithBase(modelName, cfg.Base.Pose())
	for _, jc := range ordered {
		j, err := jc.ToJoint()
		if err != nil {
			return nil, err
		}
		if err := model.AddJoint(j); err != nil {
			return nil, err
		}
	}
	return model, nil
}

// SolverConfig returns the default solver configuration overlaid with anything the file sets, and
// validates it.
func (cfg *ModelConfig) SolverConfig() (SolverConfig, error) {
	out := NewDefaultSolverConfig()
	if cfg.Solver != nil {
		out = *cfg.Solver
	}
	return out, out.Validate()
}

// UnmarshalJSON fills unset solver fields from the defaults.
func (cfg *SolverConfig) UnmarshalJSON(data []byte) error {
	type plain SolverConfig
	out := plain(NewDefaultSolverConfig())
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*cfg = SolverConfig(out)
	return nil
}

// UnmarshalYAML fills unset solver fields from the defaults.
func (cfg *SolverConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain SolverConfig
	out := plain(NewDefaultSolverConfig())
	if err := node.Decode(&out); err != nil {
		return err
	}
	*cfg = SolverConfig(out)
	return nil
}

// orderedJoints returns the joints in chain order, following parent links when they are given.
func (cfg *ModelConfig) orderedJoints() ([]JointConfig, error) {
	withParent := 0
	seen := make(map[string]struct{}, len(cfg.Joints))
	for _, j := range cfg.Joints {
		if j.ID == World {
			return nil, errors.Errorf("joint cannot use reserved name %q", World)
		}
		if _, ok := seen[j.ID]; ok {
			return nil, errors.Errorf("duplicate joint id %q", j.ID)
		}
		seen[j.ID] = struct{}{}
		if j.Parent != "" {
			withParent++
		}
	}
	if withParent == 0 {
		return cfg.Joints, nil
	}
	if withParent != len(cfg.Joints) {
		return nil, errors.New("either every joint or no joint must name a parent")
	}

	children := map[string]JointConfig{}
	for _, j := range cfg.Joints {
		if other, ok := children[j.Parent]; ok {
			return nil, errors.Errorf("joints %q and %q share parent %q; only serial chains are supported", other.ID, j.ID, j.Parent)
		}
		children[j.Parent] = j
	}

	ordered := make([]JointConfig, 0, len(cfg.Joints))
	curr := World
	for range cfg.Joints {
		next, ok := children[curr]
		if !ok {
			break
		}
		delete(children, curr)
		ordered = append(ordered, next)
		curr = next.ID
	}
	if len(children) != 0 {
		return nil, errors.Errorf("joints with parents %v are not connected to %q", maps.Keys(children), World)
	}
	return ordered, nil
}

// Config returns the description of the model's chain. Solver settings are not part of a model.
func (m *Model) Config() *ModelConfig {
	cfg := &ModelConfig{Name: m.name}
	base := m.chain.Base()
	if !spatialmath.PoseAlmostEqual(base, spatialmath.NewZeroPose(), 1e-12) {
		pt := base.Point()
		ea := base.Orientation().EulerAngles()
		cfg.Base = &BaseConfig{
			X: pt.X, Y: pt.Y, Z: pt.Z,
			RollDeg:  utils.RadToDeg(ea.Roll),
			PitchDeg: utils.RadToDeg(ea.Pitch),
			YawDeg:   utils.RadToDeg(ea.Yaw),
		}
	}
	for _, j := range m.chain.joints {
		jc := JointConfig{ID: j.Name, Type: j.Kind.String()}
		if j.Kind == Bone {
			jc.Length = j.Length
		}
		cfg.Joints = append(cfg.Joints, jc)
	}
	return cfg
}

// MarshalJSON serializes the model's chain in the same format UnmarshalModelJSON reads.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Config())
}
