package rest

import (
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/microcosm-cc/bluemonday"
	"github.com/xompass/vsaas-dal/database"
	"github.com/xompass/vsaas-dal/http_errors"
	"golang.org/x/text/unicode/norm"
)

const maxBodySize = 4 << 20

// Integers are kept as int64 so they compare equal to stored integer keys.
var jsonAPI = sonic.Config{UseInt64: true}.Froze()

var htmlPolicy = bluemonday.UGCPolicy()

// stringProcessor transforms every string value of a decoded body.
type stringProcessor func(string) string

func unicodeNormalizer(s string) string {
	return norm.NFC.String(s)
}

func htmlSanitizer(s string) string {
	return htmlPolicy.Sanitize(s)
}

func (receiver *RestApp) bodyProcessors() []stringProcessor {
	processors := []stringProcessor{unicodeNormalizer}
	if receiver != nil && receiver.options.SanitizeHTML {
		processors = append(processors, htmlSanitizer)
	}
	return processors
}

func parseBody(e *Endpoint, ec *EndpointContext) error {
	if !e.ParseBody {
		return nil
	}

	request := ec.EchoCtx.Request()
	if ct := request.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return http_errors.NewErrorResponseWithCode(415, INVALID_BODY, "Request body must be JSON")
	}

	data, err := io.ReadAll(io.LimitReader(request.Body, maxBodySize+1))
	if err != nil {
		return http_errors.BadRequestErrorWithCode(INVALID_BODY, "Failed to read request body", err.Error())
	}
	if len(data) > maxBodySize {
		return http_errors.NewErrorResponseWithCode(413, INVALID_BODY, "Request body is too large")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return http_errors.BadRequestErrorWithCode(INVALID_BODY, "Request body cannot be empty")
	}

	var body any
	if err := jsonAPI.Unmarshal(data, &body); err != nil {
		return http_errors.BadRequestErrorWithCode(INVALID_BODY, "Failed to bind request body", err.Error())
	}

	ec.ParsedBody = processValue(body, ec.App.bodyProcessors())
	return nil
}

func processValue(value any, processors []stringProcessor) any {
	switch v := value.(type) {
	case string:
		for _, process := range processors {
			v = process(v)
		}
		return v
	case map[string]any:
		for key, item := range v {
			v[key] = processValue(item, processors)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = processValue(item, processors)
		}
		return v
	}
	return value
}

// BodyRecord returns the parsed body when it is a JSON object.
func (eCtx *EndpointContext) BodyRecord() (database.Record, error) {
	record, ok := eCtx.ParsedBody.(map[string]any)
	if !ok {
		return nil, http_errors.BadRequestErrorWithCode(INVALID_BODY, "Request body must be a JSON object")
	}
	return record, nil
}

// BodyRecords returns the parsed body as a list of records. The boolean is
// false when the body was a single object.
func (eCtx *EndpointContext) BodyRecords() ([]database.Record, bool, error) {
	list, ok := eCtx.ParsedBody.([]any)
	if !ok {
		record, err := eCtx.BodyRecord()
		if err != nil {
			return nil, false, http_errors.BadRequestErrorWithCode(INVALID_BODY, "Request body must be a JSON object or an array of objects")
		}
		return []database.Record{record}, false, nil
	}

	records := make([]database.Record, 0, len(list))
	for i, item := range list {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, true, http_errors.BadRequestErrorWithCode(INVALID_BODY, "Request body must be an array of objects", map[string]int{"index": i})
		}
		records = append(records, record)
	}
	return records, true, nil
}
