package filter

import (
	"strings"

	"github.com/jmespath/go-jmespath"
)

var queryCache = newLRUCache[*jmespath.JMESPath](64)

// Query applies a JMESPath expression to decoded response data
// (e.g. objects[?id > `1`].label). An empty expression returns data as is.
func Query(data any, expression string) (any, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return data, nil
	}

	jp, ok := queryCache.Get(expression)
	if !ok {
		var err error
		jp, err = jmespath.Compile(expression)
		if err != nil {
			return nil, &QueryError{Query: expression, Reason: "invalid JMESPath expression", Err: err}
		}
		queryCache.Put(expression, jp)
	}

	result, err := jp.Search(numbersAsFloat(data))
	if err != nil {
		return nil, &QueryError{Query: expression, Reason: "search failed", Err: err}
	}
	return result, nil
}
