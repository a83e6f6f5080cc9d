package employeeform

func (f *Form) AddExperience() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return "", err
	}
	return f.draft.Experiences.Add(), nil
}

func (f *Form) UpdateExperience(key string, patch ExperiencePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return err
	}
	return f.draft.Experiences.Update(key, patch.apply)
}

// RemoveExperience follows the same deferred policy as documents.
func (f *Form) RemoveExperience(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return err
	}
	removed, err := f.draft.Experiences.Remove(key)
	if err != nil {
		return err
	}
	if !removed.IsNew() {
		f.draft.DeletedExperienceIDs.Add(removed.ServerID)
	}
	return nil
}
