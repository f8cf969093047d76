package rrconfig

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"
)

// envOverrider walks a configuration struct and replaces any field
// whose "PREFIX_FIELD_SUBFIELD"-style environment variable is set,
// following distribution/configuration's parser.go scheme:
// v.Abc may be replaced by the value of PREFIX_ABC,
// v.Abc.Xyz may be replaced by the value of PREFIX_ABC_XYZ, and so forth.
type envOverrider struct {
	env map[string]string
}

func newEnvOverrider() *envOverrider {
	e := &envOverrider{env: make(map[string]string)}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			e.env[parts[0]] = parts[1]
		}
	}
	return e
}

func (e *envOverrider) overwriteFields(v reflect.Value, prefix string) error {
	for v.Kind() == reflect.Ptr {
		v = reflect.Indirect(v)
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			sf := v.Type().Field(i)
			fieldPrefix := strings.ToUpper(prefix + "_" + sf.Name)
			if raw, ok := e.env[fieldPrefix]; ok {
				fieldVal := reflect.New(sf.Type)
				if err := yaml.Unmarshal([]byte(raw), fieldVal.Interface()); err != nil {
					return fmt.Errorf("rrconfig: %s: %w", fieldPrefix, err)
				}
				v.Field(i).Set(reflect.Indirect(fieldVal))
			}
			if err := e.overwriteFields(v.Field(i), fieldPrefix); err != nil {
				return err
			}
		}
	case reflect.Map:
		e.overwriteMap(v, prefix)
	}
	return nil
}

func (e *envOverrider) overwriteMap(m reflect.Value, prefix string) error {
	envMapRegexp, err := regexp.Compile(fmt.Sprintf("^%s_([A-Z0-9]+)$", strings.ToUpper(prefix)))
	if err != nil {
		return err
	}

	if m.Type().Elem().Kind() == reflect.Struct {
		for _, k := range m.MapKeys() {
			if err := e.overwriteFields(m.MapIndex(k), strings.ToUpper(fmt.Sprintf("%s_%s", prefix, k))); err != nil {
				return err
			}
		}
	}

	for key, val := range e.env {
		submatches := envMapRegexp.FindStringSubmatch(key)
		if submatches == nil {
			continue
		}
		mapValue := reflect.New(m.Type().Elem())
		if err := yaml.Unmarshal([]byte(val), mapValue.Interface()); err != nil {
			return fmt.Errorf("rrconfig: %s: %w", key, err)
		}
		if m.IsNil() {
			m.Set(reflect.MakeMap(m.Type()))
		}
		m.SetMapIndex(reflect.ValueOf(strings.ToLower(submatches[1])), reflect.Indirect(mapValue))
	}
	return nil
}
