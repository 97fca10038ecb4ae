package models

// Technology is an entry of the fixed technology vocabulary.
type Technology struct {
	Key  string
	Name string
}

// Technologies is the vocabulary, in display order.
var Technologies = []Technology{
	{Key: "node", Name: "Node.Js"},
	{Key: "express", Name: "Express.Js"},
	{Key: "react", Name: "React.Js"},
	{Key: "next", Name: "Next.Js"},
	{Key: "typescript", Name: "Typescript"},
	{Key: "others", Name: "Others"},
}

// IsKnownTech reports whether key belongs to the vocabulary.
func IsKnownTech(key string) bool {
	for _, t := range Technologies {
		if t.Key == key {
			return true
		}
	}
	return false
}

// TechName returns the display name for key, or key itself when unknown.
func TechName(key string) string {
	for _, t := range Technologies {
		if t.Key == key {
			return t.Name
		}
	}
	return key
}
