//go:build lambda

// Command lambda serves plan requests behind an AWS Lambda function URL.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/turtacn/fieldplan/internal/app"
	"github.com/turtacn/fieldplan/internal/application/planning"
	"github.com/turtacn/fieldplan/internal/config"
	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fieldplan/internal/interfaces/http/handlers"
	"github.com/turtacn/fieldplan/pkg/errors"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

// maxLambdaBudget keeps a plan inside the function timeout.
const maxLambdaBudget = 20 * time.Second

type planHandler struct {
	svc    planning.Service
	logger logging.Logger
}

func (h *planHandler) handle(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(errors.New(errors.ErrCodeInputParse, "invalid base64 body"))
		}
		body = string(decoded)
	}

	var req handlers.CreatePlanRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return errResp(errors.New(errors.ErrCodeInputParse, "invalid JSON").WithDetail(err.Error()))
	}
	sreq := req.ServiceRequest()
	if sreq.TimeBudget <= 0 || sreq.TimeBudget > maxLambdaBudget {
		sreq.TimeBudget = maxLambdaBudget
	}

	resp, err := h.svc.Plan(ctx, sreq)
	if err != nil && (resp == nil || resp.Plan == nil) {
		return errResp(err)
	}
	if err != nil {
		h.logger.Info("partial plan returned", logging.String("code", string(errors.GetCode(err))))
	}

	out, mErr := json.Marshal(resp.Plan)
	if mErr != nil {
		return errResp(errors.Wrap(mErr, errors.ErrCodeSerialization, "encode plan"))
	}
	headers := map[string]string{
		"Content-Type":  "application/json",
		"X-Input-Hash":  resp.InputHash,
		"X-Plan-Cached": strconv.FormatBool(resp.Cached),
	}
	return events.LambdaFunctionURLResponse{StatusCode: http.StatusOK, Headers: headers, Body: string(out)}, nil
}

func errResp(err error) (events.LambdaFunctionURLResponse, error) {
	body := handlers.ErrorResponse{Code: string(errors.ErrCodeInternal), Message: "internal server error"}
	status := http.StatusInternalServerError
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		status = errors.HTTPStatus(ae.Code)
		body = handlers.ErrorResponse{Code: string(ae.Code), Message: ae.Message, Detail: ae.Detail}
	}
	data, _ := json.Marshal(body)
	return events.LambdaFunctionURLResponse{StatusCode: status, Headers: jsonHeader, Body: string(data)}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	comps, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("wire components", logging.Err(err))
	}
	h := &planHandler{svc: comps.Service, logger: logger}
	lambda.Start(h.handle)
}

//Personal.AI order the ending
