package marketdata

import (
	"testing"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type TimespanTestSuite struct {
	suite.Suite
}

func TestTimespanSuite(t *testing.T) {
	suite.Run(t, new(TimespanTestSuite))
}

func (suite *TimespanTestSuite) TestMultiplier() {
	tests := []struct {
		timespan Timespan
		expected int
	}{
		{TimespanOneSecond, 1},
		{TimespanOneMinute, 1},
		{TimespanThreeMinutes, 3},
		{TimespanFiveMinutes, 5},
		{TimespanFifteenMinutes, 15},
		{TimespanThirtyMinutes, 30},
		{TimespanOneHour, 1},
		{TimespanTwoHours, 2},
		{TimespanFourHours, 4},
		{TimespanSixHours, 6},
		{TimespanEightHours, 8},
		{TimespanTwelveHours, 12},
		{TimespanOneDay, 1},
		{TimespanThreeDays, 3},
		{TimespanOneWeek, 1},
		{TimespanOneMonth, 1},
	}

	for _, tc := range tests {
		suite.Run(string(tc.timespan), func() {
			result := tc.timespan.Multiplier()
			suite.Equal(tc.expected, result)
		})
	}
}

func (suite *TimespanTestSuite) TestMultiplierDefault() {
	// Test with an unknown timespan
	unknownTimespan := Timespan("unknown")
	result := unknownTimespan.Multiplier()
	suite.Equal(1, result)
}

func (suite *TimespanTestSuite) TestTimespan() {
	tests := []struct {
		timespan Timespan
		expected models.Timespan
	}{
		{TimespanOneSecond, models.Second},
		{TimespanOneMinute, models.Minute},
		{TimespanThreeMinutes, models.Minute},
		{TimespanFiveMinutes, models.Minute},
		{TimespanFifteenMinutes, models.Minute},
		{TimespanThirtyMinutes, models.Minute},
		{TimespanOneHour, models.Hour},
		{TimespanTwoHours, models.Hour},
		{TimespanFourHours, models.Hour},
		{TimespanSixHours, models.Hour},
		{TimespanEightHours, models.Hour},
		{TimespanTwelveHours, models.Hour},
		{TimespanOneDay, models.Day},
		{TimespanThreeDays, models.Day},
		{TimespanOneWeek, models.Week},
		{TimespanOneMonth, models.Month},
	}

	for _, tc := range tests {
		suite.Run(string(tc.timespan), func() {
			result := tc.timespan.Timespan()
			suite.Equal(tc.expected, result)
		})
	}
}

func (suite *TimespanTestSuite) TestTimespanDefault() {
	// Test with an unknown timespan
	unknownTimespan := Timespan("unknown")
	result := unknownTimespan.Timespan()
	suite.Equal(models.Day, result)
}

func (suite *TimespanTestSuite) TestParseTimespan() {
	for name := range intervals {
		parsed, err := ParseTimespan(string(name))
		suite.NoError(err)
		suite.Equal(name, parsed)
	}

	for _, invalid := range []string{"", "7m", "1D", "day"} {
		_, err := ParseTimespan(invalid)
		suite.Error(err, invalid)
		suite.Equal(errors.ErrCodeInvalidTimespan, errors.GetCode(err))
	}
}
