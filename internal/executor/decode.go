package executor

import (
	"fmt"
	"reflect"

	"github.com/go-openapi/strfmt"
	"github.com/mitchellh/mapstructure"
)

var dateTimeType = reflect.TypeOf(strfmt.DateTime{})

// Decode decodes the result of the query name into out, which must be a
// pointer. Struct fields are matched by their json tag, case-insensitively,
// and ISO-8601 strings decode into strfmt.DateTime fields.
func (r *Results) Decode(name string, out any) error {
	v, ok := r.values[name]
	if !ok {
		return fmt.Errorf("executor: no result for query %q", name)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToDateTimeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("executor: decode %q: %w", name, err)
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("executor: decode %q: %w", name, err)
	}
	return nil
}

func stringToDateTimeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != dateTimeType {
		return data, nil
	}
	return strfmt.ParseDateTime(data.(string))
}
