package service

import (
	"context"
	"dojo-service/api"
	"dojo-service/internal/models"
	"dojo-service/pkg/response"
	"fmt"
	"strings"
	"time"
)

const defaultClassHours = 1.0

// Classes

func (s *Service) CreateClass(ctx context.Context, req *api.ClassRequest) (*api.ClassResponse, error) {
	const op = "service.CreateClass"

	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, response.Invalid("start_time must be HH:MM"))
	}

	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, response.Invalid("end_time must be HH:MM"))
	}

	if !end.After(start) {
		return nil, fmt.Errorf("%s: %w", op, response.Invalid("end_time must be after start_time"))
	}

	hours := defaultClassHours
	if req.DurationHours != nil {
		if *req.DurationHours < 0.25 || *req.DurationHours > 8 {
			return nil, fmt.Errorf("%s: %w", op, response.Invalid("duration_hours must be between 0.25 and 8"))
		}
		hours = *req.DurationHours
	}

	classType := models.ClassRegular
	if req.ClassType != "" {
		classType = models.ClassType(req.ClassType)
	}

	class := &models.Class{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		InstructorID:    req.InstructorID,
		DojoID:          req.DojoID,
		DayOfWeek:       strings.ToLower(req.DayOfWeek),
		StartTime:       start.Format("15:04"),
		EndTime:         end.Format("15:04"),
		DurationHours:   hours,
		ClassType:       classType,
		MaxParticipants: req.MaxParticipants,
		Active:          true,
	}

	id, err := s.store.CreateClass(ctx, class)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetClass(ctx, id)
}

func (s *Service) GetClass(ctx context.Context, id int64) (*api.ClassResponse, error) {
	const op = "service.GetClass"

	class, err := s.store.GetClass(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toClassResponse(class)
	return &resp, nil
}

func (s *Service) ListClasses(ctx context.Context, filter models.ClassFilter) ([]api.ClassResponse, error) {
	const op = "service.ListClasses"

	classes, err := s.store.ListClasses(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.ClassResponse, 0, len(classes))
	for _, class := range classes {
		result = append(result, toClassResponse(class))
	}

	return result, nil
}

func toClassResponse(class *models.Class) api.ClassResponse {
	return api.ClassResponse{
		ID:              class.ID,
		Name:            class.Name,
		Description:     class.Description,
		InstructorID:    class.InstructorID,
		DojoID:          class.DojoID,
		DayOfWeek:       class.DayOfWeek,
		StartTime:       class.StartTime,
		EndTime:         class.EndTime,
		DurationHours:   class.DurationHours,
		ClassType:       string(class.ClassType),
		MaxParticipants: class.MaxParticipants,
		Active:          class.Active,
	}
}

// Members

func (s *Service) CreateMember(ctx context.Context, req *api.MemberRequest) (*api.MemberResponse, error) {
	const op = "service.CreateMember"

	status := models.MemberActive
	if req.Status != "" {
		status = models.MemberStatus(req.Status)
	}

	member := &models.Member{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Status:    status,
	}

	id, err := s.store.CreateMember(ctx, member)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetMember(ctx, id)
}

func (s *Service) GetMember(ctx context.Context, id int64) (*api.MemberResponse, error) {
	const op = "service.GetMember"

	member, err := s.store.GetMember(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toMemberResponse(member)
	return &resp, nil
}

func (s *Service) ListMembers(ctx context.Context, status *string) ([]api.MemberResponse, error) {
	const op = "service.ListMembers"

	var st *models.MemberStatus
	if status != nil {
		v := models.MemberStatus(*status)
		st = &v
	}

	members, err := s.store.ListMembers(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.MemberResponse, 0, len(members))
	for _, member := range members {
		result = append(result, toMemberResponse(member))
	}

	return result, nil
}

func toMemberResponse(member *models.Member) api.MemberResponse {
	return api.MemberResponse{
		ID:        member.ID,
		FirstName: member.FirstName,
		LastName:  member.LastName,
		Email:     member.Email,
		Status:    string(member.Status),
	}
}
