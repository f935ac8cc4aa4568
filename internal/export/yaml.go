package export

import (
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/contact-scraper/internal/model"
)

// WriteYAML writes rf as a YAML document.
func WriteYAML(w io.Writer, rf model.ResultFile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rf); err != nil {
		return eris.Wrap(err, "yaml: encode")
	}
	return eris.Wrap(enc.Close(), "yaml: close")
}
