// Package paramfile reads parameter sets from HCL files, CSV batch files and
// key=value command-line assignments.
package paramfile

import (
	"fmt"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/talysviz/talysrun/internal/models"
)

// LoadHCL reads a flat HCL file of attributes:
//
//	projectile = "n"
//	element    = "Fe"
//	mass       = 56
//	energy     = 14.0
//	ldmodel    = 2
//
// Keys keep their order in the file. Numeric literals keep their source
// text, so 14.0 is written back as 14.0.
func LoadHCL(path string) (*models.ParameterSet, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}
	return ParseHCL(src, path)
}

// ParseHCL is LoadHCL on in-memory source. filename is used in diagnostics.
func ParseHCL(src []byte, filename string) (*models.ParameterSet, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", filename, diags.Error())
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("failed to parse HCL file %s: unexpected body type %T", filename, file.Body)
	}
	if len(body.Blocks) > 0 {
		b := body.Blocks[0]
		return nil, fmt.Errorf("%s: blocks are not supported (found %q)", b.TypeRange.String(), b.Type)
	}

	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, attr := range body.Attributes {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})

	params := models.NewParameterSet()
	for _, attr := range attrs {
		v, err := attributeValue(attr, src)
		if err != nil {
			return nil, err
		}
		params.Set(attr.Name, v)
	}
	return params, nil
}

func attributeValue(attr *hclsyntax.Attribute, src []byte) (models.Value, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return models.Value{}, fmt.Errorf("%s: %s", attr.SrcRange.String(), diags.Error())
	}
	if val.IsNull() || !val.IsKnown() {
		return models.Value{}, fmt.Errorf("%s: %q has no value", attr.SrcRange.String(), attr.Name)
	}

	switch val.Type() {
	case cty.String:
		return models.String(val.AsString()), nil
	case cty.Bool:
		return models.Bool(val.True()), nil
	case cty.Number:
		var f float64
		if err := gocty.FromCtyValue(val, &f); err != nil {
			return models.Value{}, fmt.Errorf("%s: %w", attr.SrcRange.String(), err)
		}
		v := models.Number(f)
		if _, literal := attr.Expr.(*hclsyntax.LiteralValueExpr); literal {
			v.Raw = string(attr.Expr.Range().SliceBytes(src))
		}
		return v, nil
	default:
		return models.Value{}, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsupported parameter type",
			Detail:   fmt.Sprintf("%q must be a string, number or bool, not %s.", attr.Name, val.Type().FriendlyName()),
			Subject:  attr.Expr.Range().Ptr(),
		}
	}
}
