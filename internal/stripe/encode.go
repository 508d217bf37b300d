package stripe

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Encode flattens p into Stripe's form encoding. Nested maps become
// key[sub], slices become key[0], key[1]. Nil values are skipped; an empty
// string is sent as-is, which Stripe treats as "unset this field".
func Encode(p Params) url.Values {
	v := url.Values{}
	for k, val := range p {
		encode(v, k, val)
	}
	return v
}

func encode(v url.Values, key string, val any) {
	switch x := val.(type) {
	case nil:
	case map[string]any:
		for k, sub := range x {
			encode(v, key+"["+k+"]", sub)
		}
	case map[string]string:
		for k, sub := range x {
			v.Add(key+"["+k+"]", sub)
		}
	case []any:
		for i, sub := range x {
			encode(v, key+"["+strconv.Itoa(i)+"]", sub)
		}
	case []string:
		for i, sub := range x {
			v.Add(key+"["+strconv.Itoa(i)+"]", sub)
		}
	case []map[string]any:
		for i, sub := range x {
			encode(v, key+"["+strconv.Itoa(i)+"]", sub)
		}
	case string:
		v.Add(key, x)
	case bool:
		v.Add(key, strconv.FormatBool(x))
	case float64:
		v.Add(key, strconv.FormatFloat(x, 'f', -1, 64))
	case int:
		v.Add(key, strconv.Itoa(x))
	case int64:
		v.Add(key, strconv.FormatInt(x, 10))
	case json.Number:
		v.Add(key, x.String())
	default:
		v.Add(key, fmt.Sprint(x))
	}
}
