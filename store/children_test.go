package store_test

import (
	"database/sql"

	. "github.com/Kanir1/KindergartenApp/store"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("OwnerSet", func() {

	Context("Scan", func() {

		It("should split a comma separated string", func() {
			set := OwnerSet{}
			Expect(set.Scan("p1,p2,p3")).To(Succeed())
			Expect(set.ToList()).To(Equal([]string{"p1", "p2", "p3"}))
		})

		It("should split a byte slice", func() {
			set := OwnerSet{}
			Expect(set.Scan([]byte("p1,p2"))).To(Succeed())
			Expect(set.ToList()).To(Equal([]string{"p1", "p2"}))
		})

		It("should stay empty on nil", func() {
			set := OwnerSet{}
			Expect(set.Scan(nil)).To(Succeed())
			Expect(set.ToList()).To(BeEmpty())
		})

		It("should stay empty on empty string", func() {
			set := OwnerSet{}
			Expect(set.Scan("")).To(Succeed())
			Expect(set.ToList()).To(BeEmpty())
		})

		It("should reject other types", func() {
			set := OwnerSet{}
			Expect(set.Scan(42)).NotTo(Succeed())
		})
	})
})

var _ = Describe("Child ownership", func() {

	Context("Owners", func() {

		It("should merge the owner set with both legacy columns", func() {
			child := Child{
				OwnerSet:      OwnerSet{"p3", "p1"},
				LegacyParentA: DbNullString("p2"),
				LegacyParentB: DbNullString("p4"),
			}
			Expect(child.Owners()).To(Equal([]string{"p1", "p2", "p3", "p4"}))
		})

		It("should deduplicate an owner present in several shapes", func() {
			child := Child{
				OwnerSet:      OwnerSet{"p1", "p2"},
				LegacyParentA: DbNullString("p1"),
				LegacyParentB: DbNullString("p2"),
			}
			Expect(child.Owners()).To(Equal([]string{"p1", "p2"}))
		})

		It("should ignore empty legacy columns", func() {
			child := Child{
				OwnerSet: OwnerSet{"p1"},
			}
			Expect(child.Owners()).To(Equal([]string{"p1"}))
		})

		It("should return an empty set for an unowned child", func() {
			Expect(Child{}.Owners()).To(BeEmpty())
		})

		It("should return a sorted set", func() {
			child := Child{
				OwnerSet:      OwnerSet{"zz", "aa"},
				LegacyParentA: DbNullString("mm"),
			}
			Expect(child.Owners()).To(Equal([]string{"aa", "mm", "zz"}))
		})
	})

	Context("IsOwnedBy", func() {

		It("should accept an owner from the owner set", func() {
			child := Child{OwnerSet: OwnerSet{"p1"}}
			Expect(child.IsOwnedBy("p1")).To(BeTrue())
		})

		It("should accept an owner only present in legacy_parent_a", func() {
			child := Child{LegacyParentA: DbNullString("p1")}
			Expect(child.IsOwnedBy("p1")).To(BeTrue())
		})

		It("should accept an owner only present in legacy_parent_b", func() {
			child := Child{LegacyParentB: DbNullString("p1")}
			Expect(child.IsOwnedBy("p1")).To(BeTrue())
		})

		It("should reject a non owner", func() {
			child := Child{
				OwnerSet:      OwnerSet{"p1"},
				LegacyParentA: DbNullString("p2"),
				LegacyParentB: DbNullString("p3"),
			}
			Expect(child.IsOwnedBy("p4")).To(BeFalse())
		})

		It("should reject the empty user id even when a shape holds an empty value", func() {
			child := Child{LegacyParentA: sql.NullString{}}
			Expect(child.IsOwnedBy("")).To(BeFalse())
		})
	})

	// The behavior of IsOwnedBy must match the SQL query filter: membership in
	// the owner set OR equality with either legacy column. This walks every
	// combination of shapes holding or not holding the candidate.
	Context("predicate equivalence", func() {

		reference := func(child Child, userId string) bool {
			if userId == "" {
				return false
			}
			for _, id := range child.OwnerSet {
				if id == userId {
					return true
				}
			}
			return child.LegacyParentA.String == userId || child.LegacyParentB.String == userId
		}

		It("should agree with the OR of the three shapes for every combination", func() {
			userId := "p1"
			other := "p2"

			setShapes := []OwnerSet{nil, {other}, {userId}, {other, userId}}
			legacyShapes := []sql.NullString{{}, DbNullString(other), DbNullString(userId)}

			for _, set := range setShapes {
				for _, legacyA := range legacyShapes {
					for _, legacyB := range legacyShapes {
						child := Child{
							OwnerSet:      set,
							LegacyParentA: legacyA,
							LegacyParentB: legacyB,
						}
						Expect(child.IsOwnedBy(userId)).To(Equal(reference(child, userId)),
							"set=%v a=%v b=%v", set, legacyA, legacyB)
						Expect(child.IsOwnedBy(other)).To(Equal(reference(child, other)),
							"set=%v a=%v b=%v", set, legacyA, legacyB)
					}
				}
			}
		})
	})
})
