package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/signalsfoundry/sp3-orbit-converter/core"
)

// Earth rotation model names.
const (
	RotationNone = "none"
	RotationGMST = "gmst"
)

// Gravity field model names.
const (
	GravityNone   = "none"
	GravityStatic = "static"
	GravityTidal  = "tidal"
)

// GravityConfig describes the degree-1 gravity field used for the CM2CE
// correction.
type GravityConfig struct {
	Model        string              `yaml:"model" env:"SP3CONV_GRAVITY_MODEL"` // none | static | tidal
	R            float64             `yaml:"radius"`
	C10          float64             `yaml:"c10"`
	C11          float64             `yaml:"c11"`
	S11          float64             `yaml:"s11"`
	Constituents []ConstituentConfig `yaml:"constituents"`
}

// ConstituentConfig is one periodic term of a tidal gravity model.
type ConstituentConfig struct {
	Name      string  `yaml:"name"`
	Frequency float64 `yaml:"frequency"` // rad/s
	Phase     float64 `yaml:"phase"`     // rad
	C10Cos    float64 `yaml:"c10_cos"`
	C10Sin    float64 `yaml:"c10_sin"`
	C11Cos    float64 `yaml:"c11_cos"`
	C11Sin    float64 `yaml:"c11_sin"`
	S11Cos    float64 `yaml:"s11_cos"`
	S11Sin    float64 `yaml:"s11_sin"`
}

func (f FrameConfig) rotationKind() (string, error) {
	switch kind := strings.ToLower(strings.TrimSpace(f.EarthRotation)); kind {
	case "", RotationNone:
		return RotationNone, nil
	case RotationGMST:
		return RotationGMST, nil
	default:
		return "", fmt.Errorf("%w: earth rotation %q", ErrUnknownModel, f.EarthRotation)
	}
}

// EarthRotation builds the configured rotation provider. It returns nil
// when no rotation is configured; toUT converts GPS epochs to UT.
func (f FrameConfig) EarthRotation(toUT func(time.Time) time.Time) (core.EarthRotation, error) {
	kind, err := f.rotationKind()
	if err != nil {
		return nil, err
	}
	if kind == RotationGMST {
		return core.NewGMSTRotation(toUT), nil
	}
	return nil, nil
}

func (g GravityConfig) kind() string {
	kind := strings.ToLower(strings.TrimSpace(g.Model))
	if kind == "" {
		return GravityNone
	}
	return kind
}

func (g GravityConfig) validate() error {
	switch g.kind() {
	case GravityNone:
		return nil
	case GravityStatic, GravityTidal:
		if g.R <= 0 {
			return fmt.Errorf("gravity model %s requires a positive radius", g.kind())
		}
		return nil
	default:
		return fmt.Errorf("%w: gravity model %q", ErrUnknownModel, g.Model)
	}
}

// Field builds the configured gravity field. It returns nil when no field is
// configured.
func (g GravityConfig) Field() (core.GravityField, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	background := core.Degree1Harmonics{R: g.R, C00: 1, C10: g.C10, C11: g.C11, S11: g.S11}
	switch g.kind() {
	case GravityStatic:
		return core.StaticGravityField{Coefficients: background}, nil
	case GravityTidal:
		tidal := &core.TidalGravityField{Background: background}
		for _, c := range g.Constituents {
			tidal.Constituents = append(tidal.Constituents, core.TideConstituent{
				Name:      c.Name,
				Frequency: c.Frequency,
				Phase:     c.Phase,
				C10Cos:    c.C10Cos,
				C10Sin:    c.C10Sin,
				C11Cos:    c.C11Cos,
				C11Sin:    c.C11Sin,
				S11Cos:    c.S11Cos,
				S11Sin:    c.S11Sin,
			})
		}
		return tidal, nil
	default:
		return nil, nil
	}
}
