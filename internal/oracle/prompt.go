package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const instructions = `You are an AI assistant tasked with distributing workload among team members fairly and efficiently.

Input data:
%s

Instructions:
1. Distribute all work portions among available users
2. Consider the weight of each work portion (1-10 scale)
3. Consider user preferences (1-5 scale, where 5 is most preferred)
4. Ensure fair distribution based on work portion weights
5. Try to assign work portions to users who prefer them
6. Balance the total weight assigned to each user
7. Admin users can handle any work portion
8. Regular users can only handle work portions they have access to

Output format:
Return a JSON object with work portion IDs as keys and user IDs as values.
Example: {"1": 5, "2": 3, "3": 7}

Only return the JSON object, nothing else.
`

type promptPreference struct {
	WorkPortionID int64 `json:"workPortionId"`
	Preference    int   `json:"preference"`
}

type promptUserPreferences struct {
	UserID      int64              `json:"userId"`
	Preferences []promptPreference `json:"preferences"`
}

type promptData struct {
	WorkPortions []Portion              `json:"workPortions"`
	Users        []Member               `json:"users"`
	Preferences  []promptUserPreferences `json:"preferences"`
}

// BuildPrompt renders the snapshot as indented JSON inside the instruction text.
// Preferences are ordered by user id then portion id so equal inputs give equal prompts.
func BuildPrompt(in Input) (string, error) {
	data := promptData{
		WorkPortions: in.Portions,
		Users:        in.Users,
		Preferences:  make([]promptUserPreferences, 0, len(in.Preferences)),
	}
	if data.WorkPortions == nil {
		data.WorkPortions = []Portion{}
	}
	if data.Users == nil {
		data.Users = []Member{}
	}

	userIDs := make([]int64, 0, len(in.Preferences))
	for id := range in.Preferences {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	for _, userID := range userIDs {
		levels := in.Preferences[userID]
		portionIDs := make([]int64, 0, len(levels))
		for id := range levels {
			portionIDs = append(portionIDs, id)
		}
		sort.Slice(portionIDs, func(i, j int) bool { return portionIDs[i] < portionIDs[j] })

		entry := promptUserPreferences{UserID: userID, Preferences: make([]promptPreference, 0, len(portionIDs))}
		for _, id := range portionIDs {
			entry.Preferences = append(entry.Preferences, promptPreference{WorkPortionID: id, Preference: levels[id]})
		}
		data.Preferences = append(data.Preferences, entry)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode prompt data: %w", err)
	}
	return fmt.Sprintf(instructions, raw), nil
}

// ExtractJSON pulls the outermost JSON object out of a model reply, skipping
// markdown fences and surrounding prose. It returns "" when nothing valid is found.
func ExtractJSON(raw string) string {
	if start := strings.Index(raw, "```json"); start != -1 {
		raw = raw[start+len("```json"):]
		if end := strings.Index(raw, "```"); end != -1 {
			raw = raw[:end]
		}
	} else if start := strings.Index(raw, "```"); start != -1 {
		raw = raw[start+3:]
		if end := strings.Index(raw, "```"); end != -1 {
			raw = raw[:end]
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}

	candidate := raw[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return ""
	}
	return candidate
}

// ParseDistribution decodes a reply into a Distribution. Keys must be integer
// strings; values may be integers or integer strings.
func ParseDistribution(reply string) (Distribution, error) {
	object := ExtractJSON(reply)
	if object == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrMalformedReply)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(object), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	dist := make(Distribution, len(entries))
	for key, value := range entries {
		portionID, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: work portion id %q is not an integer", ErrMalformedReply, key)
		}
		userID, err := parseUserID(value)
		if err != nil {
			return nil, fmt.Errorf("%w: user id for work portion %d: %v", ErrMalformedReply, portionID, err)
		}
		dist[portionID] = userID
	}
	return dist, nil
}

func parseUserID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return 0, fmt.Errorf("unsupported value %s", raw)
	}
	return n.Int64()
}
