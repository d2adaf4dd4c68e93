package handler

import (
	"github.com/popeskul/cadence/internal/api"
	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/service"
)

func toSubmission(sub *models.Submission) api.Submission {
	state := api.SubmissionState(service.DeliveryState(sub))
	out := api.Submission{
		SubmissionId: sub.ID,
		UserId:       sub.UserID,
		Cadence:      string(sub.Cadence),
		Repeat:       string(sub.Repeat),
		Timezone:     sub.Timezone,
		StartTime:    sub.StartTime,
		CreatedAt:    sub.CreatedAt,
		Ready:        sub.IsReady(),
		State:        &state,
	}
	if sub.TextField.Valid {
		text := sub.TextField.String
		out.TextField = &text
	}
	if len(sub.UploadedFiles) > 0 {
		files := []string(sub.UploadedFiles)
		out.UploadedFiles = &files
	}
	if sub.LastSentTime.Valid {
		t := sub.LastSentTime.Time
		out.LastSentTime = &t
	}
	return out
}

func toResults(in []models.SubmissionResult) []api.SubmissionResult {
	out := make([]api.SubmissionResult, 0, len(in))
	for _, r := range in {
		res := api.SubmissionResult{
			SubmissionId: r.SubmissionID,
			Status:       api.SubmissionResultStatus(r.Status),
		}
		if r.Error != "" {
			msg := r.Error
			res.Error = &msg
		}
		out = append(out, res)
	}
	return out
}

func toDispatchResponse(r *models.DispatchResult) api.DispatchResponse {
	resp := api.DispatchResponse{
		Success:   r.Success,
		Processed: r.Processed,
		Results:   toResults(r.Results),
	}
	if r.Error != "" {
		msg := r.Error
		resp.Error = &msg
	}
	return resp
}

func toProcessResponse(r *models.ProcessResult) api.ProcessResponse {
	resp := api.ProcessResponse{Success: r.Success}
	if r.Message != "" {
		msg := r.Message
		resp.Message = &msg
	}
	if r.Error != "" {
		msg := r.Error
		resp.Error = &msg
	}
	if r.Processed != nil {
		processed := toResults(r.Processed)
		resp.Processed = &processed
	}
	return resp
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
