package s4_dataset

import (
	"fmt"
	"slices"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// Split partitions rows by calendar year. Every train year must precede every
// test year. testYears may be empty, in which case no holdout is produced.
func Split(rows []contracts.DailyFeatureRow, trainYears, testYears []int) (train, test []contracts.DailyFeatureRow, err error) {
	if err := checkYears(trainYears, testYears); err != nil {
		return nil, nil, err
	}

	for _, r := range rows {
		y := r.Date.Year()
		switch {
		case slices.Contains(trainYears, y):
			train = append(train, r)
		case slices.Contains(testYears, y):
			test = append(test, r)
		}
	}

	if len(train) == 0 {
		return nil, nil, &contracts.InsufficientDataError{
			Stage: contracts.StageDataset, What: fmt.Sprintf("train rows for years %v", trainYears), Have: 0, Need: 1,
		}
	}
	if len(testYears) > 0 && len(test) == 0 {
		return nil, nil, &contracts.InsufficientDataError{
			Stage: contracts.StageDataset, What: fmt.Sprintf("test rows for years %v", testYears), Have: 0, Need: 1,
		}
	}
	return train, test, nil
}

func checkYears(trainYears, testYears []int) error {
	if len(trainYears) == 0 {
		return &contracts.DataValidationError{
			Stage: contracts.StageDataset, Field: "train_years", Message: "at least one train year is required",
		}
	}
	if len(testYears) == 0 {
		return nil
	}
	if slices.Max(trainYears) >= slices.Min(testYears) {
		return &contracts.DataValidationError{
			Stage:   contracts.StageDataset,
			Field:   "test_years",
			Message: fmt.Sprintf("train years %v must all precede test years %v", trainYears, testYears),
		}
	}
	return nil
}
