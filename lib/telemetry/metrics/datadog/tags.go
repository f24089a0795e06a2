package datadog

import (
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

func getTags(tags any) []string {
	// Yaml parses lists as a sequence, so we'll unpack it again with the same library.
	if tags == nil {
		return []string{}
	}

	yamlBytes, err := yaml.Marshal(tags)
	if err != nil {
		return []string{}
	}

	var retTagStrings []string
	if err = yaml.Unmarshal(yamlBytes, &retTagStrings); err != nil {
		return []string{}
	}

	return retTagStrings
}

func toDatadogTags(tags map[string]string) []string {
	var retTags []string
	for _, key := range slices.Sorted(maps.Keys(tags)) {
		retTags = append(retTags, fmt.Sprintf("%s:%s", key, tags[key]))
	}

	return retTags
}
