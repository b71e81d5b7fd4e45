package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/edukita/timetable-api/internal/models"
	"github.com/edukita/timetable-api/internal/timetable"
	appErrors "github.com/edukita/timetable-api/pkg/errors"
	"github.com/edukita/timetable-api/pkg/export"
)

// Export formats accepted by the timetable export endpoint.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var dayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
	7: "Sunday",
}

type subjectCatalogue interface {
	List(ctx context.Context) ([]models.Subject, error)
}

type csvRenderer interface {
	Render(grid export.WeeklyGrid) ([]byte, error)
}

type pdfRenderer interface {
	Render(grid export.WeeklyGrid) ([]byte, error)
}

// ExportArtifact is a rendered timetable document ready to be streamed.
type ExportArtifact struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders a section's committed timetable as CSV or PDF.
type ExportService struct {
	sections  sectionReader
	sessions  sessionReader
	templates templateReader
	teachers  teacherDirectory
	subjects  subjectCatalogue
	slots     slotStore
	runs      runStore
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(
	sections sectionReader,
	sessions sessionReader,
	templates templateReader,
	teachers teacherDirectory,
	subjects subjectCatalogue,
	slots slotStore,
	runs runStore,
	csv csvRenderer,
	pdf pdfRenderer,
	logger *zap.Logger,
) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		sections:  sections,
		sessions:  sessions,
		templates: templates,
		teachers:  teachers,
		subjects:  subjects,
		slots:     slots,
		runs:      runs,
		csv:       csv,
		pdf:       pdf,
		logger:    logger,
	}
}

// ExportTimetable renders the current committed timetable of a section.
func (s *ExportService) ExportTimetable(ctx context.Context, sectionID, sessionID, format string) (*ExportArtifact, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if sectionID == "" || sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sectionId and sessionId are required")
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	assignments, err := s.slots.ListBySection(ctx, sectionID, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slot assignments")
	}
	if len(assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section has no committed timetable")
	}

	grid := s.buildGrid(ctx, section, session, assignments)

	title := fmt.Sprintf("%s timetable - %s", section.Name, session.Name)
	grid.Title = title

	base := fmt.Sprintf("timetable_%s_%s", sanitizeFilename(section.Name), sanitizeFilename(session.Name))
	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(grid)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportArtifact{Content: payload, ContentType: "text/csv", Filename: base + ".csv"}, nil
	default:
		payload, err := s.pdf.Render(grid)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportArtifact{Content: payload, ContentType: "application/pdf", Filename: base + ".pdf"}, nil
	}
}

// buildGrid lays assignments out on the session's working days. Slot rows and
// break labels come from the template of the most recent generation run when
// available; otherwise the shape is derived from the assignments themselves.
func (s *ExportService) buildGrid(ctx context.Context, section *models.Section, session *models.Session, assignments []models.SlotAssignment) export.WeeklyGrid {
	days := session.WorkingDays()
	slotsPerDay := 0
	for _, a := range assignments {
		if a.SlotNumber > slotsPerDay {
			slotsPerDay = a.SlotNumber
		}
	}

	var resolved *timetable.Grid
	if runs, err := s.runs.ListBySection(ctx, section.ID, session.ID); err == nil && len(runs) > 0 {
		if tpl, err := s.templates.FindByID(ctx, runs[0].TemplateID); err == nil {
			if g, err := timetable.ResolveTemplate(tpl, days); err == nil {
				resolved = g
				if g.SlotsPerDay > slotsPerDay {
					slotsPerDay = g.SlotsPerDay
				}
			}
		}
	}

	subjectNames := s.subjectNames(ctx)
	teacherNames := s.teacherNames(ctx)

	byCell := make(map[[2]int]models.SlotAssignment, len(assignments))
	for _, a := range assignments {
		byCell[[2]int{a.DayOfWeek, a.SlotNumber}] = a
	}

	dayHeaders := make([]string, len(days))
	for i, d := range days {
		dayHeaders[i] = dayNames[d]
	}

	slotLabels := make([]string, slotsPerDay)
	cells := make([][]string, slotsPerDay)
	for slot := 1; slot <= slotsPerDay; slot++ {
		slotLabels[slot-1] = fmt.Sprintf("%d", slot)
		row := make([]string, len(days))
		for i, day := range days {
			if resolved != nil {
				if cell, ok := resolved.Cell(day, slot); ok {
					if slotLabels[slot-1] == fmt.Sprintf("%d", slot) && cell.StartTime != "" {
						slotLabels[slot-1] = fmt.Sprintf("%d (%s-%s)", slot, cell.StartTime, cell.EndTime)
					}
					switch cell.Kind {
					case timetable.CellBreak:
						row[i] = "Break"
						continue
					case timetable.CellLunch:
						row[i] = "Lunch"
						continue
					}
				}
			}
			if a, ok := byCell[[2]int{day, slot}]; ok {
				subject := subjectNames[a.SubjectID]
				if subject == "" {
					subject = a.SubjectID
				}
				teacher := teacherNames[a.TeacherID]
				if teacher == "" {
					teacher = a.TeacherID
				}
				row[i] = subject + "\n" + teacher
			}
		}
		cells[slot-1] = row
	}

	return export.WeeklyGrid{DayHeaders: dayHeaders, SlotLabels: slotLabels, Cells: cells}
}

func (s *ExportService) subjectNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		s.logger.Warn("failed to load subject names for export", zap.Error(err))
		return names
	}
	for _, subject := range subjects {
		names[subject.ID] = subject.Name
	}
	return names
}

func (s *ExportService) teacherNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		s.logger.Warn("failed to load teacher names for export", zap.Error(err))
		return names
	}
	for _, teacher := range teachers {
		names[teacher.ID] = teacher.FullName
	}
	return names
}

func sanitizeFilename(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, raw)
	if cleaned == "" {
		return "export"
	}
	return strings.ToLower(cleaned)
}
