package stream

import (
	"fmt"
	"strings"

	"github.com/boom-astro/babamul/internal/domain"
)

// Topics are named babamul.<survey>.<match>.<hosted|hostless>.
const (
	TopicZtfLsstMatchHosted     = "babamul.ztf.lsst-match.hosted"
	TopicZtfLsstMatchHostless   = "babamul.ztf.lsst-match.hostless"
	TopicZtfNoLsstMatchHosted   = "babamul.ztf.no-lsst-match.hosted"
	TopicZtfNoLsstMatchHostless = "babamul.ztf.no-lsst-match.hostless"
	TopicLsstZtfMatchHosted     = "babamul.lsst.ztf-match.hosted"
	TopicLsstZtfMatchHostless   = "babamul.lsst.ztf-match.hostless"
	TopicLsstNoZtfMatchHosted   = "babamul.lsst.no-ztf-match.hosted"
	TopicLsstNoZtfMatchHostless = "babamul.lsst.no-ztf-match.hostless"
)

const topicPrefix = "babamul"

// Topic is the parsed form of a stream topic name.
type Topic struct {
	Name    string
	Survey  domain.Survey
	Matched bool // alert has a counterpart in the other survey
	Hosted  bool // alert has a host galaxy candidate
}

// ParseTopic parses a babamul topic name. Errors wrap domain.ErrConfiguration.
func ParseTopic(name string) (Topic, error) {
	parts := strings.Split(name, ".")
	if len(parts) < 2 || parts[0] != topicPrefix {
		return Topic{}, fmt.Errorf("%w: %q is not a babamul topic", domain.ErrConfiguration, name)
	}
	survey, err := domain.ParseSurvey(parts[1])
	if err != nil {
		return Topic{}, fmt.Errorf("%w: topic %q names no known survey", domain.ErrConfiguration, name)
	}

	t := Topic{Name: name, Survey: survey}
	if len(parts) > 2 {
		t.Matched = !strings.HasPrefix(parts[2], "no-")
	}
	if len(parts) > 3 {
		t.Hosted = parts[3] == "hosted"
	}
	return t, nil
}

// SurveyFromTopic returns the survey a topic carries alerts for.
func SurveyFromTopic(name string) (domain.Survey, error) {
	t, err := ParseTopic(name)
	return t.Survey, err
}

// TopicsFor returns every topic of a survey.
func TopicsFor(survey domain.Survey) []string {
	switch survey {
	case domain.SurveyZTF:
		return []string{TopicZtfLsstMatchHosted, TopicZtfLsstMatchHostless, TopicZtfNoLsstMatchHosted, TopicZtfNoLsstMatchHostless}
	case domain.SurveyLSST:
		return []string{TopicLsstZtfMatchHosted, TopicLsstZtfMatchHostless, TopicLsstNoZtfMatchHosted, TopicLsstNoZtfMatchHostless}
	}
	return nil
}
