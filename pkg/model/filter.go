package model

import (
	"github.com/sabhiram/go-gitignore"
)

// Filter decides which object paths are eligible for indexing, using
// gitignore-style include/exclude patterns. Includes always win over
// excludes, and an unmatched path is included by default.
type Filter struct {
	Include []string `json:"include" mapstructure:"include"`
	Exclude []string `json:"exclude" mapstructure:"exclude"`

	incMatcher *ignore.GitIgnore
	excMatcher *ignore.GitIgnore
}

func (flt *Filter) ValidPath(pathToTest string) bool {

	if flt.incMatcher == nil {
		incMatcher, err := ignore.CompileIgnoreLines(flt.Include...)
		if err != nil {
			return true
		}
		flt.incMatcher = incMatcher
	}
	if flt.excMatcher == nil {
		excMatcher, err := ignore.CompileIgnoreLines(flt.Exclude...)
		if err != nil {
			return true
		}
		flt.excMatcher = excMatcher
	}

	if flt.incMatcher.MatchesPath(pathToTest) {
		return true
	}

	if flt.excMatcher.MatchesPath(pathToTest) {
		return false
	}

	return true
}
