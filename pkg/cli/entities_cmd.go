package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"metaql/internal/domain"
)

type entityOutput struct {
	Name          string           `json:"name"`
	QualifiedName string           `json:"qualified_name"`
	Kind          string           `json:"kind"`
	TypeCode      int              `json:"type_code,omitempty"`
	Table         string           `json:"table"`
	Properties    []propertyOutput `json:"properties,omitempty"`
	TableParts    []string         `json:"table_parts,omitempty"`
}

type propertyOutput struct {
	Name      string   `json:"name"`
	Purpose   string   `json:"purpose"`
	Shape     string   `json:"shape"`
	Reference string   `json:"reference,omitempty"`
	Fields    []string `json:"fields"`
}

func toEntityOutput(obj *domain.ApplicationObject) entityOutput {
	return entityOutput{
		Name:          obj.Name,
		QualifiedName: obj.QualifiedName(),
		Kind:          obj.Kind.String(),
		TypeCode:      obj.TypeCode,
		Table:         obj.TableName,
	}
}

func newEntitiesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "entities [kind] [pattern]",
		Short: "List metadata objects",
		Long: `Lists the objects of the main database (or --database). kind is a marker
such as Справочник or a kind name such as catalog; pattern matches a
substring of the name, ignoring case.`,
		Example: `  metaql entities -c catalog.yaml Справочник контр`,
		Args:    cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind, pattern string
			if len(args) > 0 {
				kind = args[0]
			}
			if len(args) > 1 {
				pattern = args[1]
			}
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			objs, err := svc.Entities(cmd.Context(), "", kind, pattern)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == outputJSON {
				out := make([]entityOutput, 0, len(objs))
				for _, obj := range objs {
					out = append(out, toEntityOutput(obj))
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			rows := make([][]string, 0, len(objs))
			for _, obj := range objs {
				rows = append(rows, []string{obj.QualifiedName(), obj.Kind.String(), strconv.Itoa(obj.TypeCode), obj.TableName})
			}
			return printTable(cmd.OutOrStdout(), []string{"name", "kind", "type code", "table"}, rows)
		},
	}
}

func newDescribeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "describe <name>",
		Short:   "Show the properties and fields of a metadata object",
		Example: `  metaql describe -c catalog.yaml Документ.Продажа.Товары`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			obj, err := svc.Entity(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}

			out := toEntityOutput(obj)
			for _, p := range obj.Properties {
				prop := propertyOutput{
					Name:      p.Name,
					Purpose:   p.Purpose.String(),
					Shape:     p.Shape().String(),
					Reference: p.ReferenceType,
				}
				for _, f := range p.Fields {
					prop.Fields = append(prop.Fields, f.Name)
				}
				out.Properties = append(out.Properties, prop)
			}
			for _, tp := range obj.TableParts {
				out.TableParts = append(out.TableParts, tp.QualifiedName())
			}

			if getOutputFormat(cmd) == outputJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "%s (%s, table %s)\n\n", out.QualifiedName, out.Kind, out.Table)
			rows := make([][]string, 0, len(out.Properties))
			for _, p := range out.Properties {
				rows = append(rows, []string{p.Name, p.Purpose, p.Shape, strings.Join(p.Fields, ", ")})
			}
			if err := printTable(w, []string{"property", "purpose", "shape", "fields"}, rows); err != nil {
				return err
			}
			if len(out.TableParts) > 0 {
				_, _ = fmt.Fprintf(w, "\nTable parts: %s\n", strings.Join(out.TableParts, ", "))
			}
			return nil
		},
	}
}
