package attrkind

// Builtins returns fresh instances of every built-in kind in presentation order.
func Builtins() []Kind {
	return []Kind{
		NewText(),
		newTextarea(),
		newEmail(),
		newURL(),
		newNumber(),
		newRange(),
		newDate(),
		newSelect(),
		newMultiselect(),
		newCheckbox(),
		newRadio(),
		newAgeRange(),
		newHeight(),
		newWeight(),
		newGender(),
		newRelationshipStatus(),
		newLookingFor(),
		newInterests(),
		newLocation(),
		newEducation(),
		newProfession(),
		newZodiac(),
		newLifestyle(),
	}
}
