/*
Copyright 2026 The Manifest Builder contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package log builds the zap logger of the manifest-builder command.
//
// Console output is meant for an operator watching a run: short timestamps,
// and caller information only in debug mode. JSON output is meant for CI
// systems that collect logs and always carries full timestamps and callers.
package log

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	ctrlruntimelzap "sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Format selects the log encoding. It implements pflag.Value.
type Format string

const (
	FormatJSON    Format = "JSON"
	FormatConsole Format = "Console"
)

var AvailableFormats = []Format{FormatJSON, FormatConsole}

func (f *Format) Type() string {
	return "string"
}

func (f *Format) String() string {
	return string(*f)
}

// Set accepts a format name in any case.
func (f *Format) Set(s string) error {
	for _, format := range AvailableFormats {
		if strings.EqualFold(s, string(format)) {
			*f = format
			return nil
		}
	}
	return fmt.Errorf("invalid format %q, expected one of %v", s, AvailableFormats)
}

// Options are the logging flags of the command line.
type Options struct {
	// Debug logs every written manifest and every helm invocation.
	Debug bool
	// Format is the encoding of log lines.
	Format Format
}

// NewDefaultOptions returns console logging at info level.
func NewDefaultOptions() Options {
	return Options{
		Format: FormatConsole,
	}
}

// AddPFlags registers --log-debug and --log-format.
func (o *Options) AddPFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Debug, "log-debug", o.Debug, "Log every written manifest and every helm invocation")
	fs.Var(&o.Format, "log-format", "Log format, one of JSON or Console")
}

func (o *Options) Validate() error {
	for _, format := range AvailableFormats {
		if o.Format == format {
			return nil
		}
	}

	return fmt.Errorf("invalid log-format specified %q; available: %+v", o.Format, AvailableFormats)
}

// New builds a logger writing to w.
func New(o Options, w io.Writer) *zap.Logger {
	sink := zapcore.AddSync(w)

	level := zapcore.InfoLevel
	if o.Debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	opts := []zap.Option{zap.ErrorOutput(sink)}

	var enc zapcore.Encoder
	if o.Format == FormatJSON {
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
		opts = append(opts, zap.AddCaller())
	} else {
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encCfg.ConsoleSeparator = " "
		enc = zapcore.NewConsoleEncoder(encCfg)
		if o.Debug {
			opts = append(opts, zap.AddCaller())
		}
	}

	core := zapcore.NewCore(&ctrlruntimelzap.KubeAwareEncoder{Encoder: enc}, sink, level)
	return zap.New(core, opts...)
}
