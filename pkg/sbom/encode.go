package sbom

import (
	"io"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/matzehuels/stackbom/pkg/errors"
)

// Encode writes bom as CycloneDX JSON.
func Encode(w io.Writer, bom *cdx.BOM, pretty bool) error {
	enc := cdx.NewBOMEncoder(w, cdx.BOMFileFormatJSON)
	enc.SetPretty(pretty)
	if err := enc.Encode(bom); err != nil {
		return errors.Wrap(errors.ErrCodeAssembly, err, "encode document")
	}
	return nil
}

// Decode reads a CycloneDX JSON document.
func Decode(r io.Reader) (*cdx.BOM, error) {
	var bom cdx.BOM
	if err := cdx.NewBOMDecoder(r, cdx.BOMFileFormatJSON).Decode(&bom); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode document")
	}
	return &bom, nil
}
