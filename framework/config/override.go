package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/km-arc/go-beans/framework/container"
)

// PropertyOverrideConfigurer overlays property values onto registered
// definitions before any bean is created. Keys have the form
// "bean.property"; the first dot separates the bean name from the
// property, so property names may not contain dots.
//
//	app.AddFactoryPostProcessor(&config.PropertyOverrideConfigurer{
//	    Properties: map[string]string{"dataSource.url": "postgres://db"},
//	    Files:      []string{"overrides.env"},
//	    IgnoreResourceNotFound: true,
//	})
//
// Files use dotenv syntax and are applied in order, then Properties, so an
// explicit entry wins over a file.
type PropertyOverrideConfigurer struct {
	Properties             map[string]string
	Files                  []string
	IgnoreResourceNotFound bool
	// IgnoreInvalidKeys skips keys naming an unknown bean or lacking a dot.
	IgnoreInvalidKeys bool
	Precedence        int
}

// Order implements container.Ordered.
func (c *PropertyOverrideConfigurer) Order() int { return c.Precedence }

// PostProcessFactory implements container.FactoryPostProcessor.
func (c *PropertyOverrideConfigurer) PostProcessFactory(_ context.Context, f *container.Factory) error {
	props, err := c.merged()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := c.apply(f, key, props[key]); err != nil {
			if c.IgnoreInvalidKeys {
				f.Logger().WithField("key", key).WithError(err).Debug("ignoring property override")
				continue
			}
			return err
		}
	}
	return nil
}

func (c *PropertyOverrideConfigurer) merged() (map[string]string, error) {
	out := make(map[string]string)
	for _, file := range c.Files {
		values, err := godotenv.Read(file)
		if err != nil {
			if c.IgnoreResourceNotFound && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("property override: read %s: %w", file, err)
		}
		for k, v := range values {
			out[k] = v
		}
	}
	for k, v := range c.Properties {
		out[k] = v
	}
	return out, nil
}

func (c *PropertyOverrideConfigurer) apply(f *container.Factory, key, value string) error {
	bean, property, ok := strings.Cut(key, ".")
	if !ok || bean == "" || property == "" {
		return fmt.Errorf("property override: invalid key %q, expected bean.property", key)
	}
	def, err := f.Definition(bean)
	if err != nil {
		return fmt.Errorf("property override %q: %w", key, err)
	}
	def.Properties().Add(property, value)
	f.Logger().WithField("bean", bean).WithField("property", property).Debug("overriding property value")
	return nil
}
