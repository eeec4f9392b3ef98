package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jlab-mis/rdmsync/internal/mis"
	"github.com/jlab-mis/rdmsync/internal/record"
	"github.com/jlab-mis/rdmsync/internal/transform"
)

// TransformOptions holds flags for the transform command.
type TransformOptions struct {
	*RootOptions
	Kind      string
	Community string
}

// NewTransformCommand creates the offline transform command. It maps source
// records from a local JSON file to deposit payloads on stdout, without
// touching either remote service. Useful for inspecting what a sync would
// upload and for building test fixtures.
func NewTransformCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransformOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transform <file>",
		Short: "Transform source records from a file to deposit payloads",
		Long: `Transform source records from a local JSON file into repository deposit
payloads, printed to stdout. The file holds either one record object or a
{"data": [...]} envelope as returned by the source services.

Example:
  rdmsync transform --kind publications sample.json
  rdmsync transform --kind proposals --community 3301... proposals.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "record kind (proposals|publications, required)")
	cmd.Flags().StringVar(&opts.Community, "community", "", "community id to stamp into the payloads")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func runTransform(cmd *cobra.Command, opts *TransformOptions, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}
	raw, err := unwrapData(data)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse input", err)
	}

	var payloads []*record.Record
	switch opts.Kind {
	case "proposals":
		mapper := transform.ProposalMapper{CommunityID: opts.Community}
		for i, entry := range raw {
			var p mis.Proposal
			if err := json.Unmarshal(entry, &p); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("record %d is not a proposal", i), err)
			}
			rec, rep := mapper.Transform(&p)
			logFallbacks(cmd, rep)
			payloads = append(payloads, rec)
		}
	case "publications":
		mapper := transform.PublicationMapper{CommunityID: opts.Community}
		for i, entry := range raw {
			var p mis.Publication
			if err := json.Unmarshal(entry, &p); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("record %d is not a publication", i), err)
			}
			rec, rep := mapper.Transform(&p)
			logFallbacks(cmd, rep)
			payloads = append(payloads, rec)
		}
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid kind %q: must be proposals or publications", opts.Kind))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if len(payloads) == 1 {
		return enc.Encode(payloads[0])
	}
	return enc.Encode(payloads)
}

// unwrapData splits the input into individual record documents, accepting a
// bare object, a bare array, or a {"data": [...]} envelope.
func unwrapData(data []byte) ([]json.RawMessage, error) {
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var single map[string]json.RawMessage
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("input is neither a record, an array, nor a data envelope: %w", err)
	}
	return []json.RawMessage{json.RawMessage(data)}, nil
}

// logFallbacks surfaces classification degradations on stderr.
func logFallbacks(cmd *cobra.Command, rep transform.Report) {
	for _, f := range rep.Fallbacks {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s fell back to %q: %s\n", f.Field, f.Code, f.Reason)
	}
}
