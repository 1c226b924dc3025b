package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// validateArguments checks tools/call arguments against the tool's input
// schema before dispatch. The returned error message is client-facing.
func validateArguments(schema map[string]any, arguments json.RawMessage) error {
	if len(arguments) == 0 {
		arguments = json.RawMessage("{}")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewStringLoader(string(arguments)),
	)
	if err != nil {
		return fmt.Errorf("Invalid arguments: %s", err.Error())
	}

	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("Invalid arguments: %s", strings.Join(details, "; "))
	}

	return nil
}
