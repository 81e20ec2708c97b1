package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Dosada05/league-rating-system/repositories"
	"github.com/Dosada05/league-rating-system/storage"
)

type ExportService interface {
	// ExportStandings renders the current league table to an xlsx
	// workbook, uploads it and returns the public URL.
	ExportStandings(ctx context.Context, leagueID, actingUserID int) (string, error)
}

type exportService struct {
	standings StandingsService
	rosters   repositories.RosterRepository
	uploader  storage.FileUploader
}

func NewExportService(
	standingsService StandingsService,
	rosterRepo repositories.RosterRepository,
	uploader storage.FileUploader,
) ExportService {
	return &exportService{
		standings: standingsService,
		rosters:   rosterRepo,
		uploader:  uploader,
	}
}

func (s *exportService) ExportStandings(ctx context.Context, leagueID, actingUserID int) (string, error) {
	if s.uploader == nil {
		return "", ErrExportNotConfigured
	}
	if _, err := s.rosters.GetByLeagueAndUser(ctx, leagueID, actingUserID); err != nil {
		if errors.Is(err, repositories.ErrRosterNotFound) {
			return "", ErrNotLeagueMember
		}
		return "", err
	}

	rows, err := s.standings.GetStandings(ctx, leagueID)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Standings"
	if _, err := f.NewSheet(sheet); err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")

	headers := []string{"Place", "Player", "Rating", "Wins", "Losses", "Pending"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, r := range rows {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.DisplayName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.Rating)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.Wins)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.Losses)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), r.Pending)
	}

	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 24)
	f.SetColWidth(sheet, "C", "F", 10)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("failed to render workbook: %w", err)
	}

	key := fmt.Sprintf("exports/league_%d_%s.xlsx", leagueID, time.Now().UTC().Format("20060102T150405"))
	const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	result, err := s.uploader.Upload(ctx, key, contentType, buf)
	if err != nil {
		return "", fmt.Errorf("failed to upload standings export: %w", err)
	}
	return result.Location, nil
}
