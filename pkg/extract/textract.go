package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/aws/smithy-go"

	cfg "github.com/clauselens/docserver/config"
	"github.com/clauselens/docserver/pkg/logger"
	"github.com/clauselens/docserver/pkg/storage"
)

const pollInterval = 5 * time.Second

// TextractExtractor implements Extractor on AWS Textract. Synchronous
// extraction uses DetectDocumentText over raw bytes; asynchronous
// extraction uses StartDocumentTextDetection over the stored blob, with
// result artifacts written to the configured output bucket.
type TextractExtractor struct {
	client       *textract.Client
	outputBucket string
	outputPrefix string
	configured   bool
	logger       logger.Logger
}

// NewTextractExtractor builds the Textract adapter from environment
// config. A missing processor identity is not an error: the adapter is
// returned unconfigured and the pipeline degrades gracefully.
func NewTextractExtractor(log logger.Logger) (*TextractExtractor, error) {
	tcfg := cfg.GetTextractConfig()
	if !tcfg.Configured() {
		log.Warn("Extraction service not configured; uploads will be stored without analysis")
		return &TextractExtractor{configured: false, logger: log}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(tcfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			tcfg.AccessKey,
			tcfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &TextractExtractor{
		client:       textract.NewFromConfig(awsCfg),
		outputBucket: tcfg.OutputBucket,
		outputPrefix: tcfg.OutputPrefix,
		configured:   true,
		logger:       log,
	}, nil
}

func (t *TextractExtractor) Configured() bool { return t.configured }

func (t *TextractExtractor) ExtractSync(ctx context.Context, data []byte, mimeType string) (string, error) {
	if !t.configured {
		return "", ErrUnavailable
	}

	result, err := t.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: data},
	})
	if err != nil {
		return "", t.classify("DetectDocumentText", err)
	}

	return joinLines(result.Blocks), nil
}

func (t *TextractExtractor) ExtractAsync(ctx context.Context, blobLocator, mimeType string) (string, error) {
	if !t.configured {
		return "", ErrUnavailable
	}

	bucket, key, err := storage.ParseLocator(blobLocator)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailed, err)
	}

	out, err := t.client.StartDocumentTextDetection(ctx, &textract.StartDocumentTextDetectionInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
		OutputConfig: &types.OutputConfig{
			S3Bucket: aws.String(t.outputBucket),
			S3Prefix: aws.String(t.outputPrefix),
		},
	})
	if err != nil {
		return "", t.classify("StartDocumentTextDetection", err)
	}

	return aws.ToString(out.JobId), nil
}

func (t *TextractExtractor) AwaitResult(ctx context.Context, jobID string) (string, error) {
	if !t.configured {
		return "", ErrUnavailable
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		out, err := t.client.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId: aws.String(jobID),
		})
		if err != nil {
			return "", t.classify("GetDocumentTextDetection", err)
		}

		switch out.JobStatus {
		case types.JobStatusSucceeded, types.JobStatusPartialSuccess:
			// Textract writes output artifacts under <prefix>/<jobId>/.
			key := fmt.Sprintf("%s/%s/1", t.outputPrefix, jobID)
			return storage.Locator(t.outputBucket, key), nil
		case types.JobStatusFailed:
			return "", fmt.Errorf("%w: job %s: %s", ErrFailed, jobID, aws.ToString(out.StatusMessage))
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-ticker.C:
		}
	}
}

// textractOutput is the artifact shape Textract writes to the output
// bucket for asynchronous jobs.
type textractOutput struct {
	Blocks []struct {
		BlockType string `json:"BlockType"`
		Text      string `json:"Text"`
	} `json:"Blocks"`
}

func (t *TextractExtractor) DecodeOutput(data []byte) (string, error) {
	var out textractOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: malformed output artifact: %v", ErrFailed, err)
	}

	var lines []string
	for _, b := range out.Blocks {
		if b.BlockType == "LINE" && b.Text != "" {
			lines = append(lines, b.Text)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// classify maps SDK errors onto the extraction taxonomy: a service
// response is a rejection, anything else (transport, timeout) means the
// service is unavailable.
func (t *TextractExtractor) classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s timed out: %v", ErrUnavailable, op, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		t.logger.Warn("Extraction service rejected request",
			logger.String("operation", op),
			logger.String("code", apiErr.ErrorCode()),
		)
		return fmt.Errorf("%w: %s: %v", ErrFailed, op, err)
	}

	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func joinLines(blocks []types.Block) string {
	var lines []string
	for _, block := range blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, *block.Text)
		}
	}
	return strings.Join(lines, "\n")
}
