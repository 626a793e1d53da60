package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Connection struct {
	Target       Text `json:"target" jsonschema_description:"Exact title of another extracted entity"`
	Relationship Text `json:"relationship" jsonschema_description:"How this entity relates to the target"`
}

type Entity struct {
	Title       Text         `json:"title" jsonschema_description:"Short display name"`
	Description Text         `json:"description" jsonschema_description:"One or two sentences about the entity"`
	Year        Text         `json:"year" jsonschema_description:"Year or year range, e.g. 1808-1883"`
	Connections []Connection `json:"connections,omitempty" jsonschema_description:"Links to other entities of this answer"`
}

// Batch is one response of the text-understanding service.
type Batch struct {
	Characters []Entity `json:"characters" jsonschema_description:"People"`
	Events     []Entity `json:"events" jsonschema_description:"Battles, treaties and other dated happenings"`
	Terms      []Entity `json:"terms" jsonschema_description:"Titles, institutions and concepts"`
}

func (b *Batch) Len() int {
	return len(b.Characters) + len(b.Events) + len(b.Terms)
}

// Text accepts a JSON string, number or null. Models tend to answer "year": 1830.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string, got %s", data)
	}
	*t = Text(n.String())

	return nil
}

func (t Text) String() string {
	return string(t)
}
