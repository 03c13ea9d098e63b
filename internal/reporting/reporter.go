package reporting

import "smartguard/pkg/types"

// Reporter renders a batch of scan verdicts. Reporters that print directly
// (such as the console reporter) ignore outputPath.
type Reporter interface {
	Generate(verdicts []*types.ScanVerdict, outputPath string) error
}
