package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/noamulm-dev/Tanach100/internal/errors"
	"github.com/noamulm-dev/Tanach100/internal/hebrew"
	"github.com/noamulm-dev/Tanach100/internal/output"
)

// gematriaValue is one method's value in JSON output.
type gematriaValue struct {
	Method   hebrew.Method `json:"method"`
	Value    int           `json:"value"`
	Numerals string        `json:"numerals"`
}

func newGematriaCmd() *cobra.Command {
	var (
		methods    []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "gematria <text>",
		Short: "Compute the numeric value of Hebrew text",
		Long: `Compute gematria values. Vowel points, cantillation and
non-Hebrew characters are ignored.

Methods:
  standard  alef=1 ... tav=400, finals as their medial form
  katan     each letter reduced to one digit
  gadol     final forms valued 500 through 900
  siduri    alphabet position, alef=1 ... tav=22
  atbash    letters mirrored before summing`,
		Example: `  tanach gematria "אמת"
  tanach gematria "בְּרֵאשִׁית" --method standard --method atbash`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if hebrew.CountLetters(text) == 0 {
				return errors.ValidationError("text contains no Hebrew letters", nil)
			}

			selected := hebrew.Methods
			if len(methods) > 0 {
				selected = make([]hebrew.Method, 0, len(methods))
				for _, name := range methods {
					m, err := hebrew.ParseMethod(name)
					if err != nil {
						return errors.ValidationError(err.Error(), nil)
					}
					selected = append(selected, m)
				}
			}

			out := output.New(cmd.OutOrStdout())
			if !jsonOutput {
				out.Gematria(text, selected)
				return nil
			}

			values := make([]gematriaValue, len(selected))
			for i, m := range selected {
				v := hebrew.Gematria(text, m)
				values[i] = gematriaValue{Method: m, Value: v, Numerals: hebrew.NumberToHebrew(v)}
			}
			return out.JSON(struct {
				Text   string          `json:"text"`
				Values []gematriaValue `json:"values"`
			}{text, values})
		},
	}

	cmd.Flags().StringSliceVarP(&methods, "method", "m", nil, "Method(s) to compute (default: all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
