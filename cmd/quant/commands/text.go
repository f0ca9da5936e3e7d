package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/sentiforecast/internal/s1_text"
)

// textCmd represents the text command
var textCmd = &cobra.Command{
	Use:   "text",
	Short: "게시글 텍스트 도구 (S1)",
}

var (
	textNormalizeCmd = &cobra.Command{
		Use:   "normalize",
		Short: "stdin의 게시글을 한 줄씩 정규화",
		Long: `URL, 마크다운 링크, HTML 엔티티, 특수문자를 제거하고 $TICKER는 보존합니다.
--min-words 미만인 줄은 출력하지 않습니다.

Example:
  cat posts.txt | go run ./cmd/quant text normalize
  go run ./cmd/quant text normalize --min-words 3 --tickers < posts.txt`,
		RunE: runTextNormalize,
	}

	textMinWords int
	textTickers  bool
)

func init() {
	rootCmd.AddCommand(textCmd)
	textCmd.AddCommand(textNormalizeCmd)

	textNormalizeCmd.Flags().IntVar(&textMinWords, "min-words", 0, "최소 단어 수")
	textNormalizeCmd.Flags().BoolVar(&textTickers, "tickers", false, "추출한 ticker를 탭으로 구분해 함께 출력")
}

func runTextNormalize(cmd *cobra.Command, args []string) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	in.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()

	dropped := 0
	for in.Scan() {
		text := s1_text.Normalize(in.Text())
		if s1_text.WordCount(text) < textMinWords {
			dropped++
			continue
		}
		if textTickers {
			fmt.Fprintf(out, "%s\t%s\n", text, strings.Join(s1_text.ExtractTickers(text), ","))
			continue
		}
		fmt.Fprintln(out, text)
	}
	if err := in.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	if dropped > 0 && verbose {
		fmt.Fprintf(os.Stderr, "dropped %d lines under %d words\n", dropped, textMinWords)
	}
	return nil
}
