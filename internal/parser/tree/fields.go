package tree

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	fromClause   = regexp.MustCompile(`(?i)\bFROM\s+(\w+)`)
	costPattern  = regexp.MustCompile(`(?i)relativeCost\s*[:=]?\s*([\d.]+)`)
	bracketPairs = regexp.MustCompile(`(\w+)=([^,\]]*)`)
)

func isLineRef(field string) bool {
	return len(field) >= 2 && field[0] == '[' && field[len(field)-1] == ']'
}

func lineRef(fields []string) string {
	if len(fields) > 0 && isLineRef(fields[0]) {
		return strings.Trim(fields[0], "[]")
	}
	return ""
}

// methodName returns the qualified method of an entry or exit line. Constructor
// lines carry "<init>(...)" and the class name as separate fields.
func methodName(fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	last := strings.TrimSpace(fields[len(fields)-1])
	for _, field := range fields[:len(fields)-1] {
		if strings.HasPrefix(field, "<init>") {
			return last + "." + field
		}
	}
	return last
}

func joinFrom(fields []string, from int) string {
	if from >= len(fields) {
		return ""
	}
	return strings.TrimSpace(strings.Join(fields[from:], "|"))
}

func queryObject(query string) string {
	if match := fromClause.FindStringSubmatch(query); match != nil {
		return match[1]
	}
	return ""
}

// keyValues reads "Key:Value" fields such as Op:Insert or Rows:3 into a map
// with lower-cased keys.
func keyValues(fields []string) map[string]string {
	values := make(map[string]string)
	for _, field := range fields {
		key, value, found := strings.Cut(field, ":")
		if !found {
			continue
		}
		values[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return values
}

// bracketValues reads "Type[Key=Value, Key=Value]" into a map with lower-cased keys.
func bracketValues(field string) map[string]string {
	values := make(map[string]string)
	for _, match := range bracketPairs.FindAllStringSubmatch(field, -1) {
		values[strings.ToLower(match[1])] = strings.TrimSpace(match[2])
	}
	return values
}

func relativeCost(plan string) float64 {
	match := costPattern.FindStringSubmatch(plan)
	if match == nil {
		return 0
	}
	cost, err := strconv.ParseFloat(strings.TrimRight(match[1], "."), 64)
	if err != nil {
		return 0
	}
	return cost
}

func atoi(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

func splitException(text string, continuation []string) (string, string) {
	exceptionType, message, found := strings.Cut(text, ":")
	if !found {
		exceptionType, message = text, ""
	}
	message = strings.TrimSpace(message)
	if len(continuation) > 0 {
		message = strings.TrimSpace(message + "\n" + strings.Join(continuation, "\n"))
	}
	exceptionType = strings.TrimSpace(exceptionType)
	if exceptionType == "" {
		exceptionType = "Exception"
	}
	return exceptionType, message
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
