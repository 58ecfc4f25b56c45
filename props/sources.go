package props

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// WithYAML adds the properties of a YAML document. Nested mappings become dotted keys
// and sequence items are addressed as key[i]:
//
//	server:
//	  port: 8080
//	  hosts: [a, b]
//
// yields server.port=8080, server.hosts[0]=a and server.hosts[1]=b.
func WithYAML(in io.Reader) Option {
	return func(r *Resolver) error {
		m, err := decodeYAML(in)
		if err != nil {
			return errors.Wrap(err, "decode yaml properties")
		}
		r.merge("yaml", m)
		return nil
	}
}

// WithYAMLFile adds the properties of a YAML file.
func WithYAMLFile(path string) Option {
	return func(r *Resolver) error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open yaml properties '%s'", path)
		}
		defer f.Close()

		m, err := decodeYAML(f)
		if err != nil {
			return errors.Wrapf(err, "decode yaml properties '%s'", path)
		}
		r.merge(path, m)
		return nil
	}
}

// WithDotEnv adds the variables of .env files. The process environment is left untouched.
func WithDotEnv(files ...string) Option {
	return func(r *Resolver) error {
		m, err := godotenv.Read(files...)
		if err != nil {
			return errors.Wrapf(err, "read dotenv files %v", files)
		}
		r.merge("dotenv", m)
		return nil
	}
}

func decodeYAML(in io.Reader) (map[string]string, error) {
	var doc map[string]any
	if err := yaml.NewDecoder(in).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	out := make(map[string]string)
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, node any, out map[string]string) {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			flatten(join(prefix, k), child, out)
		}
	case map[any]any:
		for k, child := range v {
			flatten(join(prefix, fmt.Sprint(k)), child, out)
		}
	case []any:
		for i, child := range v {
			flatten(prefix+"["+strconv.Itoa(i)+"]", child, out)
		}
	case nil:
		if prefix != "" {
			out[prefix] = ""
		}
	default:
		out[prefix] = fmt.Sprint(v)
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
