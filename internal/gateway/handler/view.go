package handler

import (
	"strings"

	"promptlab/internal/asset"
	"promptlab/internal/project"
)

// projectView is a project as sent to clients: asset bytes are dropped and
// result images point at the image route instead of inlining data.
type projectView struct {
	project.Project
	Assets []asset.ImageReference `json:"assets"`
}

type projectSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slots     int    `json:"slots"`
	Versions  int    `json:"versions"`
	Results   int    `json:"results"`
	UpdatedAt int64  `json:"updatedAt"`
}

func toView(p project.Project) projectView {
	v := projectView{Project: p.Clone()}
	v.Assets = make([]asset.ImageReference, len(p.Assets))
	for i, a := range p.Assets {
		a.Data = nil
		v.Assets[i] = a
	}
	for i := range v.Results {
		v.Results[i].ImageURL = resultImagePath(p.ID, v.Results[i].ID, v.Results[i].ImageURL)
	}
	v.TranslationCache = nil
	return v
}

func resultImagePath(projectID, resultID, stored string) string {
	if strings.HasPrefix(stored, "http://") || strings.HasPrefix(stored, "https://") {
		return stored
	}
	return "/api/projects/" + projectID + "/results/" + resultID + "/image"
}

func toSummary(p project.Project) projectSummary {
	return projectSummary{
		ID:        p.ID,
		Name:      p.Name,
		Slots:     len(p.Slots),
		Versions:  len(p.Versions),
		Results:   len(p.Results),
		UpdatedAt: p.UpdatedAt,
	}
}
