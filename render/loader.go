package render

import (
	"bytes"
	"io"
	"path"

	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"
)

// boxLoader resolves pongo2 template names against a list of packr boxes.
// Later boxes shadow earlier ones.
type boxLoader struct {
	boxes []packr.Box
}

func (l *boxLoader) Abs(base, name string) string {
	return path.Clean(name)
}

func (l *boxLoader) Get(name string) (io.Reader, error) {
	for i := len(l.boxes) - 1; i >= 0; i-- {
		if !l.boxes[i].Has(name) {
			continue
		}
		data, err := l.boxes[i].Find(name)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read template %s", name)
		}
		return bytes.NewReader(data), nil
	}
	return nil, errors.Errorf("template %s not found", name)
}
