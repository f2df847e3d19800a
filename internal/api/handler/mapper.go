package handler

import (
	"time"

	"github.com/datingapp/dating-api/internal/core/domain"
	"github.com/datingapp/dating-api/internal/core/ports"
)

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		Gender:      req.Gender,
		KnownAs:     req.KnownAs,
		DateOfBirth: req.DateOfBirth.Time,
		City:        req.City,
		Country:     req.Country,
	}
}

func toPhotoResponse(p *domain.Photo) photoResponse {
	return photoResponse{
		ID:          p.ID,
		URL:         p.URL,
		Description: p.Description,
		DateAdded:   p.DateAdded.UTC(),
		IsMain:      p.IsMain,
	}
}

func toUserForList(u *domain.User, now time.Time) userForList {
	return userForList{
		ID:         u.ID,
		Username:   u.Username,
		Gender:     u.Gender,
		Age:        u.Age(now),
		KnownAs:    u.KnownAs,
		Created:    u.Created.UTC(),
		LastActive: u.LastActive.UTC(),
		City:       u.City,
		Country:    u.Country,
		PhotoURL:   u.MainPhotoURL(),
	}
}

func toUserForDetailed(u *domain.User, now time.Time) userForDetailed {
	photos := make([]photoResponse, 0, len(u.Photos))
	for i := range u.Photos {
		photos = append(photos, toPhotoResponse(&u.Photos[i]))
	}
	return userForDetailed{
		userForList:  toUserForList(u, now),
		Introduction: u.Introduction,
		LookingFor:   u.LookingFor,
		Interests:    u.Interests,
		Photos:       photos,
	}
}
