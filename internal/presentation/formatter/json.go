package formatter

import (
	"io"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-claude-latency/internal/core/model"
)

// JSONFormatter writes the whole analysis as indented JSON with sorted keys.
type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(w io.Writer, a *model.Analysis) error {
	data, err := sonic.ConfigStd.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
