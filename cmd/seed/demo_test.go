package main

import (
	"testing"

	"enquete-backend/internal/db/dbtest"
	"enquete-backend/internal/model"
)

func TestCreateDemo(t *testing.T) {
	conn := dbtest.Open(t)

	survey, created, err := createDemo(conn)
	if err != nil {
		t.Fatalf("createDemo: %v", err)
	}
	if !created || len(survey.Questions) != 2 {
		t.Fatalf("survey = %+v, created = %v", survey, created)
	}

	again, created, err := createDemo(conn)
	if err != nil {
		t.Fatalf("second createDemo: %v", err)
	}
	if created || again.ID != survey.ID {
		t.Fatalf("demo created twice")
	}

	var techs, links int64
	if err := conn.Model(&model.Technology{}).Count(&techs).Error; err != nil {
		t.Fatalf("count technologies: %v", err)
	}
	if err := conn.Table("survey_technologies").Count(&links).Error; err != nil {
		t.Fatalf("count links: %v", err)
	}
	if techs != 2 || links != 2 {
		t.Fatalf("technologies = %d, links = %d, want 2 and 2", techs, links)
	}

	var area model.Area
	if err := conn.First(&area).Error; err != nil {
		t.Fatalf("load area: %v", err)
	}
	if area.Slug != "desenvolvimento-web" {
		t.Fatalf("slug = %q", area.Slug)
	}
}
