package project

import "github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"

func toIngestResponse(report *entity.IngestReport) *entity.IngestResponse {
	resp := &entity.IngestResponse{
		Project: report.Project,
		Results: make([]entity.FileResultDTO, len(report.Results)),
	}
	for i, r := range report.Results {
		dto := entity.FileResultDTO{
			Filename:   r.Filename,
			Status:     "ok",
			ChunkCount: r.ChunkCount,
		}
		if r.Err != nil {
			dto.Status = "failed"
			dto.ChunkCount = 0
			dto.Error = r.Err.Error()
		}
		resp.Results[i] = dto
	}
	return resp
}
