package style

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/MeKo-Tech/stylizer/internal/filter"
)

// Spec is the configuration form of a style:
//
//	styles:
//	  - name: sepia-comic
//	    label: Sepia Comic
//	    steps:
//	      - op: smooth
//	        diameter: 9
//	        sigma_color: 100
//	        sigma_space: 100
//	      - op: quantize
//	        k: 6
type Spec struct {
	Name        string           `mapstructure:"name"`
	Label       string           `mapstructure:"label"`
	Description string           `mapstructure:"description"`
	Steps       []map[string]any `mapstructure:"steps"`
}

type stepDecoder func(map[string]any) (Step, error)

// stepDecoders seeds each op with the values an omitted field takes, so an
// explicit zero in a spec survives decoding.
var stepDecoders = map[string]stepDecoder{
	Smooth{}.Op():          decodeStep(Smooth{}),
	Quantize{}.Op():        decodeStep(kmeans(0)),
	CannyMask{}.Op():       decodeStep(CannyMask{}),
	AdaptiveMask{}.Op():    decodeStep(AdaptiveMask{}),
	Composite{}.Op():       decodeStep(Composite{}),
	Blend{}.Op():           decodeStep(Blend{}),
	ScaleHSV{}.Op():        decodeStep(ScaleHSV{Saturation: 1, Value: 1}),
	Median{}.Op():          decodeStep(Median{}),
	Sharpen{}.Op():         decodeStep(Sharpen{Kernel: "mild", Weight: 1}),
	Vignette{}.Op():        decodeStep(Vignette{}),
	Halftone{}.Op():        decodeStep(Halftone{Cutoff: 200, Spacing: 10, Radius: 2}),
	Glow{}.Op():            decodeStep(Glow{Cutoff: 220, Sigma: filter.SigmaForKernel(5), Weight: 0.1}),
	PosterizeChroma{}.Op(): decodeStep(PosterizeChroma{}),
	Grayscale{}.Op():       decodeStep(Grayscale{}),
	Dodge{}.Op():           decodeStep(Dodge{}),
	Equalize{}.Op():        decodeStep(Equalize{}),
	Broadcast{}.Op():       decodeStep(Broadcast{}),
}

// Ops lists every operation name a Spec step may use.
func Ops() []string {
	ops := make([]string, 0, len(stepDecoders))
	for op := range stepDecoders {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// decodeStep decodes onto a copy of def; fields missing from raw keep def's value.
func decodeStep[T Step](def T) stepDecoder {
	return func(raw map[string]any) (Step, error) {
		step := def
		if err := strictDecode(raw, &step); err != nil {
			return nil, err
		}
		return step, nil
	}
}

func strictDecode(input, result any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// Decode builds a Style from its configuration form.
func Decode(spec Spec) (Style, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return Style{}, fmt.Errorf("style name is required")
	}
	if len(spec.Steps) == 0 {
		return Style{}, fmt.Errorf("style %q has no steps", name)
	}

	s := Style{Name: name, Label: spec.Label, Description: spec.Description}
	if s.Label == "" {
		s.Label = name
	}
	for i, raw := range spec.Steps {
		op, _ := raw["op"].(string)
		dec, ok := stepDecoders[strings.ToLower(op)]
		if !ok {
			return Style{}, fmt.Errorf("style %q step %d: unknown op %q (valid: %s)", name, i, op, strings.Join(Ops(), ", "))
		}
		params := make(map[string]any, len(raw))
		for k, v := range raw {
			if k != "op" {
				params[k] = v
			}
		}
		step, err := dec(params)
		if err != nil {
			return Style{}, fmt.Errorf("style %q step %d (%s): %w", name, i, op, err)
		}
		s.Steps = append(s.Steps, step)
	}
	return s, nil
}

// DecodeAll decodes a list of style specs, typically the value of the
// "styles" configuration key.
func DecodeAll(raw any) ([]Style, error) {
	if raw == nil {
		return nil, nil
	}
	var specs []Spec
	if err := strictDecode(raw, &specs); err != nil {
		return nil, fmt.Errorf("failed to decode styles: %w", err)
	}
	styles := make([]Style, 0, len(specs))
	for _, spec := range specs {
		s, err := Decode(spec)
		if err != nil {
			return nil, err
		}
		styles = append(styles, s)
	}
	return styles, nil
}

// RegisterAll decodes raw specs and adds them to r.
func (r *Registry) RegisterAll(raw any) error {
	styles, err := DecodeAll(raw)
	if err != nil {
		return err
	}
	for _, s := range styles {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}
