package internal

import "strings"

// GetEntry returns the first match from a map, treating keys as case
// insensitive.
func GetEntry(m map[string]interface{}, key string) interface{} {
	key = strings.ToLower(key)
	for i, k := range m {
		if strings.ToLower(i) == key {
			return k
		}
	}

	return nil
}

func replaceIfEmpty(v string, s string) string {
	if v == "" {
		return s
	}

	return v
}

func returnError(err error) string {
	if err != nil {
		return err.Error()
	}

	return ""
}
