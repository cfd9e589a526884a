package redis

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// PathSeparator splits nested field paths inside a Patch, e.g.
// "players.<id>.voteCount".
const PathSeparator = "."

// Patch is a partial update of a room document: field path -> new value.
// A nil value (or a typed nil pointer) removes the field. All entries of a
// patch are merged in one atomic step by the store.
type Patch map[string]any

// PlayerField returns the path of a field inside a player entry
func PlayerField(playerID, field string) string {
	return "players" + PathSeparator + playerID + PathSeparator + field
}

// PlayerPath returns the path of a whole player entry
func PlayerPath(playerID string) string {
	return "players" + PathSeparator + playerID
}

// Merge copies every entry of other into p and returns p
func (p Patch) Merge(other Patch) Patch {
	for k, v := range other {
		p[k] = v
	}
	return p
}

// paths returns the keys sorted so parents are applied before children
func (p Patch) paths() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyPatch merges patch into the JSON document doc and returns the new
// document. Missing intermediate objects are created.
func ApplyPatch(doc []byte, patch Patch) ([]byte, error) {
	root := map[string]any{}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &root); err != nil {
			return nil, fmt.Errorf("error unmarshaling room document: %v", err)
		}
		if root == nil {
			root = map[string]any{}
		}
	}

	for _, path := range patch.paths() {
		value, err := normalize(patch[path])
		if err != nil {
			return nil, fmt.Errorf("error encoding patch value for %s: %v", path, err)
		}
		setPath(root, strings.Split(path, PathSeparator), value)
	}

	out, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("error marshaling room document: %v", err)
	}
	return out, nil
}

// normalize turns v into its generic JSON form so it can live inside a
// map[string]any document
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func setPath(node map[string]any, parts []string, value any) {
	for i, part := range parts {
		if i == len(parts)-1 {
			if value == nil {
				delete(node, part)
			} else {
				node[part] = value
			}
			return
		}
		child, ok := node[part].(map[string]any)
		if !ok {
			if value == nil {
				// nothing to delete below a missing object
				return
			}
			child = map[string]any{}
			node[part] = child
		}
		node = child
	}
}

// DecodeGameRoom parses a stored room document
func DecodeGameRoom(data []byte) (*GameRoom, error) {
	var room GameRoom
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("error unmarshaling room data: %v", err)
	}
	if room.Players == nil {
		room.Players = map[string]*Player{}
	}
	return &room, nil
}

// Apply returns a copy of the room with patch merged in. The receiver is
// left untouched.
func (r *GameRoom) Apply(patch Patch) (*GameRoom, error) {
	doc, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("error marshaling room data: %v", err)
	}
	merged, err := ApplyPatch(doc, patch)
	if err != nil {
		return nil, err
	}
	return DecodeGameRoom(merged)
}

// Clone returns a deep copy of the room
func (r *GameRoom) Clone() *GameRoom {
	c, err := r.Apply(Patch{})
	if err != nil {
		// GameRoom always round-trips through JSON
		panic(err)
	}
	return c
}
