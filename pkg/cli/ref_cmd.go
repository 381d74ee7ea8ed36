package cli

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"metaql/internal/domain"
)

type refOutput struct {
	TypeCode uint32 `json:"type_code"`
	ID       string `json:"id"`
	Literal  string `json:"literal"`
}

func newRefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ref",
		Short: "Encode and decode composite reference values",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "decode <hex>",
		Short:   "Decode a 20-byte reference literal",
		Example: `  metaql ref decode 0x0000007B0403020106050807090A0B0C0D0E0F10`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := domain.DecodeReferenceHex(args[0])
			if err != nil {
				return err
			}
			return printRef(cmd, ref)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "encode <type-code> <uuid>",
		Short:   "Encode a reference as a binary literal",
		Example: `  metaql ref encode 123 01020304-0506-0708-090a-0b0c0d0e0f10`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid type code %q", args[0])
			}
			id, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid uuid %q: %w", args[1], err)
			}
			return printRef(cmd, domain.Reference{TypeCode: uint32(code), ID: id})
		},
	})
	return cmd
}

func printRef(cmd *cobra.Command, ref domain.Reference) error {
	out := refOutput{TypeCode: ref.TypeCode, ID: ref.ID.String(), Literal: ref.Literal()}
	if getOutputFormat(cmd) == outputJSON {
		return printJSON(cmd.OutOrStdout(), out)
	}
	return printTable(cmd.OutOrStdout(), []string{"type code", "id", "literal"},
		[][]string{{strconv.FormatUint(uint64(out.TypeCode), 10), out.ID, out.Literal}})
}
