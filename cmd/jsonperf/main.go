// Command jsonperf times JSON and binary round trips of a large map of
// fixture objects across tojson and other Go codecs.
package main

import (
	stdjson "encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/francoispqt/gojay"
	gojson "github.com/goccy/go-json"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	tjson "github.com/viant/tojson/encoding/json"
	"github.com/viant/tojson/encoding/tagbin"
	"go.uber.org/zap"
)

// codec is one write/read pair under test.
type codec struct {
	name  string
	write func(dst []byte, v *perfObject) ([]byte, error)
	read  func(data []byte, v *perfObject) error
}

func main() {
	var (
		iterations = flag.Int("iterations", 5, "Round trips per codec")
		entries    = flag.Int("entries", 100000, "Entries of each fixture variant")
		pretty     = flag.Bool("pretty", false, "Prettify tojson output")
		dev        = flag.Bool("dev", false, "Development logging")
	)
	flag.Parse()

	logger, err := newLogger(*dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	tjson.SetLogger(logger)

	if err := run(logger, *iterations, *entries, *pretty); err != nil {
		logger.Error("jsonperf failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(logger *zap.Logger, iterations, entries int, pretty bool) error {
	if iterations <= 0 || entries <= 0 {
		return errors.Errorf("iterations and entries must be positive, got %d and %d", iterations, entries)
	}
	in := newPerfObject(entries)
	for _, c := range codecs(pretty) {
		if err := measure(logger, c, in, iterations); err != nil {
			return errors.Wrapf(err, "codec %v", c.name)
		}
	}
	return nil
}

func codecs(pretty bool) []codec {
	writer := tjson.MustFor[perfObject](tjson.WithPrettify(pretty))
	return []codec{
		{
			name: "tojson",
			write: func(dst []byte, v *perfObject) ([]byte, error) {
				return tjson.MarshalTo(dst, v, tjson.WithPrettify(pretty))
			},
			read: func(data []byte, v *perfObject) error { return gojson.Unmarshal(data, v) },
		},
		{
			name:  "tojson-writer",
			write: writer.AppendTo,
			read:  func(data []byte, v *perfObject) error { return gojson.Unmarshal(data, v) },
		},
		{
			name:  "tagbin",
			write: func(_ []byte, v *perfObject) ([]byte, error) { return tagbin.Marshal(v) },
			read:  func(data []byte, v *perfObject) error { return tagbin.Unmarshal(data, v) },
		},
		{
			name:  "encoding/json",
			write: func(_ []byte, v *perfObject) ([]byte, error) { return stdjson.Marshal(v) },
			read:  func(data []byte, v *perfObject) error { return stdjson.Unmarshal(data, v) },
		},
		{
			name:  "goccy",
			write: func(_ []byte, v *perfObject) ([]byte, error) { return gojson.Marshal(v) },
			read:  func(data []byte, v *perfObject) error { return gojson.Unmarshal(data, v) },
		},
		{
			name:  "jsoniter",
			write: func(_ []byte, v *perfObject) ([]byte, error) { return jsoniter.ConfigFastest.Marshal(v) },
			read:  func(data []byte, v *perfObject) error { return jsoniter.ConfigFastest.Unmarshal(data, v) },
		},
		{
			name:  "gojay",
			write: func(_ []byte, v *perfObject) ([]byte, error) { return gojay.MarshalJSONObject(v) },
			read:  func(data []byte, v *perfObject) error { return gojay.UnmarshalJSONObject(data, v) },
		},
	}
}

// measure runs the round trips of one codec and logs the throughput.
func measure(logger *zap.Logger, c codec, in *perfObject, iterations int) error {
	var buf []byte
	var writeTime, readTime time.Duration
	for i := 0; i < iterations; i++ {
		start := time.Now()
		data, err := c.write(buf[:0], in)
		if err != nil {
			return errors.Wrap(err, "write")
		}
		writeTime += time.Since(start)
		buf = data

		var out perfObject
		start = time.Now()
		if err = c.read(buf, &out); err != nil {
			return errors.Wrap(err, "read")
		}
		readTime += time.Since(start)
		if len(out.Qmap) != len(in.Qmap) {
			return errors.Errorf("read %d entries, expected %d", len(out.Qmap), len(in.Qmap))
		}
	}
	total := float64(len(buf)) * float64(iterations)
	logger.Info("roundtrip",
		zap.String("codec", c.name),
		zap.Int("bytes", len(buf)),
		zap.Float64("writeMBps", throughput(total, writeTime)),
		zap.Float64("readMBps", throughput(total, readTime)),
	)
	return nil
}

func throughput(bytes float64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return bytes / elapsed.Seconds() / (1 << 20)
}
