package http

import (
	stdhttp "net/http"
	"reflect"
	"strconv"
	"strings"

	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/validate"
)

// BindQuery fills the exported fields of dst tagged `query:"name"` from the
// request query string and validates dst. Supported kinds: string, int, bool
func BindQuery(r *stdhttp.Request, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return perr.New(perr.ErrorCodeInvalidArgument, "query target must be a struct pointer")
	}
	v := rv.Elem()
	t := v.Type()
	q := r.URL.Query()

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := f.Tag.Get("query")
		if name == "" || !f.IsExported() {
			continue
		}
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(raw)
		case reflect.Int, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return perr.WithField(perr.InvalidArgf("%s must be an integer", name), name)
			}
			fv.SetInt(n)
		case reflect.Bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return perr.WithField(perr.InvalidArgf("%s must be a boolean", name), name)
			}
			fv.SetBool(b)
		default:
			return perr.Newf(perr.ErrorCodeInvalidArgument, "unsupported query field kind %s", fv.Kind())
		}
	}
	return validate.Struct(dst)
}
