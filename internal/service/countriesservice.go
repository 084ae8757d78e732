package service

import (
	"context"
	"errors"

	"github.com/alphagov/verify-hub-sub002/internal/controller"
	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/proxy"
	"github.com/alphagov/verify-hub-sub002/internal/session"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// CountriesService はeIDAS国の一覧取得と選択を担う。
// システム全体の有効国とRP個別の許可リストの積集合が選択可能な国となる。
// RP個別のリストがない場合はシステム全体の有効国がそのまま適用される。
type CountriesService struct {
	repo         *session.Repository
	factory      *controller.Factory
	config       ConfigService
	eidasEnabled bool
}

// NewCountriesService はCountriesServiceを生成する。
func NewCountriesService(repo *session.Repository, factory *controller.Factory, config ConfigService, eidasEnabled bool) *CountriesService {
	return &CountriesService{repo: repo, factory: factory, config: config, eidasEnabled: eidasEnabled}
}

// EnabledCountries はセッションのRPが選択可能なeIDAS国一覧を返す。
func (s *CountriesService) EnabledCountries(ctx context.Context, sessionID domain.SessionID) ([]proxy.EidasCountry, error) {
	if !s.eidasEnabled {
		return nil, domain.ErrEidasNotSupported
	}
	supportsEidas, err := s.repo.TransactionSupportsEidas(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !supportsEidas {
		return nil, domain.ErrEidasNotSupported
	}

	issuer, err := s.repo.RequestIssuerEntityID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	countries, err := s.config.EidasCountries(ctx)
	if err != nil {
		return nil, err
	}
	allowList, err := s.config.TransactionEidasCountries(ctx, issuer)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]struct{}, len(allowList))
	for _, entityID := range allowList {
		allowed[entityID] = struct{}{}
	}

	var enabled []proxy.EidasCountry
	for _, country := range countries {
		if !country.Enabled {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[country.EntityID]; !ok {
				continue
			}
		}
		enabled = append(enabled, country)
	}
	return enabled, nil
}

// SelectCountry はeIDAS国の選択を処理する。選択可能な国に含まれない
// 場合はEidasCountryNotSupportedErrorを返す。初期状態のほか、国へ
// 遷移する前の選択し直しを受理する。
func (s *CountriesService) SelectCountry(ctx context.Context, sessionID domain.SessionID, countryEntityID string, registering bool, requestedLoa domain.LevelOfAssurance) error {
	enabled, err := s.EnabledCountries(ctx, sessionID)
	if err != nil {
		return err
	}
	found := false
	for _, country := range enabled {
		if country.EntityID == countryEntityID {
			found = true
			break
		}
	}
	if !found {
		return &domain.EidasCountryNotSupportedError{SessionID: sessionID, CountryEntityID: countryEntityID}
	}

	st, version, err := s.repo.GetState(ctx, sessionID, state.KindSessionStarted)
	if err != nil {
		var invalidState *session.InvalidStateError
		if !errors.As(err, &invalidState) || invalidState.Actual != state.KindEidasCountrySelected {
			return err
		}
		st, version, err = s.repo.GetState(ctx, sessionID, state.KindEidasCountrySelected)
		if err != nil {
			return err
		}
	}

	var next *state.EidasCountrySelected
	switch v := st.(type) {
	case *state.SessionStarted:
		next, err = s.factory.SessionStarted(v).SelectCountry(ctx, countryEntityID, registering, requestedLoa)
	case *state.EidasCountrySelected:
		next, err = s.factory.EidasCountrySelected(v).SelectCountry(ctx, countryEntityID, registering, requestedLoa)
	default:
		return &session.InvalidStateError{SessionID: sessionID, Expected: state.KindSessionStarted, Actual: st.Kind()}
	}
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, next, version)
}
