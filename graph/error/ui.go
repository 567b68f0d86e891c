package grapherror

import "fmt"

var defaultMessages = map[Category]string{
	CategoryValidation: "Some filter values are invalid - check the highlighted fields",
	CategoryFetch:      "Could not load data from the OpenGameData service - please try again",
	CategoryPayload:    "The data received could not be read",
	CategoryTransform:  "Some data could not be shown in the job graph",
	CategoryLayout:     "The graph layout stopped unexpectedly",
	CategoryWebSocket:  "Connection error - attempting to reconnect...",
	CategoryInternal:   "An internal error occurred - please try again",
}

// ToUIMessage returns the custom user message or the category default.
func (e *GraphError) ToUIMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	if msg, ok := defaultMessages[e.Category]; ok {
		return msg
	}
	return "An error occurred"
}

// ToMeta formats the error for the error payload sent to render clients.
func (e *GraphError) ToMeta() map[string]string {
	meta := map[string]string{
		"error":       e.Error(),
		"category":    string(e.Category),
		"description": e.ToUIMessage(),
		"timestamp":   e.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
	if e.Subcategory != "" {
		meta["subcategory"] = e.Subcategory
	}
	if len(e.Context) > 0 {
		meta["context"] = fmt.Sprintf("%v", e.Context)
	}
	return meta
}

// ToLogFields converts the error to key-value pairs for Errorw/Warnw.
func (e *GraphError) ToLogFields() []interface{} {
	fields := []interface{}{
		"error_category", e.Category,
		"error_message", e.Error(),
	}
	if e.UserMessage != "" {
		fields = append(fields, "user_message", e.UserMessage)
	}
	if e.Subcategory != "" {
		fields = append(fields, "error_subcategory", e.Subcategory)
	}
	for k, v := range e.Context {
		fields = append(fields, k, v)
	}
	return fields
}

func (e *GraphError) IsCategory(cat Category) bool {
	return e.Category == cat
}
